// internal/logic/perft.go
package logic

// Perft counts the leaf nodes of the legal move tree of the given depth,
// with color to move first and turns rotating through order. Extension
// hooks are not consulted.
func Perft(depth int, color Color, order []Color, pieces PieceList, board *Board) uint64 {
	if depth <= 0 {
		return 1
	}
	moves, _ := LegalMoves(color, pieces, board, nil)
	if depth == 1 {
		return uint64(len(moves))
	}
	next := NextColor(order, color)
	var nodes uint64
	for _, mv := range moves {
		child := board.Clone()
		if _, err := child.ApplyMove(mv); err != nil {
			continue
		}
		nodes += Perft(depth-1, next, order, pieces, child)
	}
	return nodes
}

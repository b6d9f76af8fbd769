// internal/logic/check.go
//
// Threat detection, the legal-move filter, and terminal-state detection.
//
// Notes:
//   - Threats are computed from geometric rules only. Destinations granted
//     by an ExtensionHook never give check, so a piece that attacks only
//     through its hook cannot deliver check or mate.
//   - Every color other than the defender counts as an attacker.
package logic

// IsAttacked reports whether any piece not of color defender has a
// pseudo-legal move onto at.
func IsAttacked(defender Color, at Point, pieces PieceList, board *Board) bool {
	found := false
	eachAttacker(defender, at, pieces, board, func(Point) bool {
		found = true
		return false
	})
	return found
}

// AttackersOf lists the origin of every enemy piece that attacks at, in
// board scan order (rows top to bottom, left to right).
func AttackersOf(defender Color, at Point, pieces PieceList, board *Board) []Point {
	var out []Point
	eachAttacker(defender, at, pieces, board, func(from Point) bool {
		out = append(out, from)
		return true
	})
	return out
}

// eachAttacker calls fn with the origin of each attacking piece until fn
// returns false.
func eachAttacker(defender Color, at Point, pieces PieceList, board *Board, fn func(Point) bool) {
	var buf []GameMove
	for y, row := range board.Rows {
		for x, p := range row {
			if p == nil || p.Color == defender {
				continue
			}
			def, ok := pieces[p.Symbol]
			if !ok {
				continue
			}
			from := Point{x, y}
			buf = pieceMoves(buf[:0], from, p, def, board)
			for _, mv := range buf {
				if mv.To == at {
					if !fn(from) {
						return
					}
					break
				}
			}
		}
	}
}

// InCheck reports whether any royal piece of color is attacked.
func InCheck(color Color, pieces PieceList, board *Board) bool {
	for _, sq := range royalSquares(color, pieces, board) {
		if IsAttacked(color, sq, pieces, board) {
			return true
		}
	}
	return false
}

func royalSquares(color Color, pieces PieceList, board *Board) []Point {
	return board.PositionsOf(func(p *GamePiece) bool { return pieces.isRoyal(p, color) })
}

// FilterLegal drops every move after which a royal piece of color would be
// attacked. The board is not modified. Moves the board cannot apply are
// dropped as well.
func FilterLegal(color Color, moves []GameMove, pieces PieceList, board *Board) []GameMove {
	legal := make([]GameMove, 0, len(moves))
	for _, mv := range moves {
		next := board.Clone()
		if _, err := next.ApplyMove(mv); err != nil {
			continue
		}
		if !InCheck(color, pieces, next) {
			legal = append(legal, mv)
		}
	}
	return legal
}

// LegalMoves generates and filters in one call. A hook error is returned
// alongside the legal subset of the moves that could be generated.
func LegalMoves(color Color, pieces PieceList, board *Board, hook ExtensionHook) ([]GameMove, error) {
	moves, err := GenerateMoves(color, pieces, board, hook)
	return FilterLegal(color, moves, pieces, board), err
}

// TerminalState is the outcome of EvaluateTerminal.
type TerminalState uint8

const (
	StateNone TerminalState = iota
	StateCheckmated
	StateStalemated
)

func (s TerminalState) String() string {
	switch s {
	case StateCheckmated:
		return "checkmated"
	case StateStalemated:
		return "stalemated"
	}
	return "none"
}

// EvaluateTerminal decides whether color, to move, is checkmated or
// stalemated. hook may be nil; with a hook, extension moves count as
// escapes.
func EvaluateTerminal(color Color, pieces PieceList, board *Board, hook ExtensionHook) (TerminalState, error) {
	legal, err := LegalMoves(color, pieces, board, hook)
	return ClassifyTerminal(color, legal, pieces, board), err
}

// ClassifyTerminal is EvaluateTerminal for a caller that already holds the
// legal moves of color.
func ClassifyTerminal(color Color, legal []GameMove, pieces PieceList, board *Board) TerminalState {
	switch {
	case len(legal) > 0:
		return StateNone
	case InCheck(color, pieces, board):
		return StateCheckmated
	default:
		return StateStalemated
	}
}

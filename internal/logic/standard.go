// internal/logic/standard.go
package logic

// Movement notation of the orthodox chess pieces.
const (
	NotationKing   = "1*"
	NotationQueen  = "n*"
	NotationRook   = "n+"
	NotationBishop = "nX"
	NotationKnight = "~1/2"
	NotationPawn   = "o1>,oi2>,c1X>"
)

// Movement notation of common fairy pieces.
const (
	NotationAmazon     = "n*,~1/2"
	NotationMarshal    = "n+,~1/2"
	NotationCardinal   = "nX,~1/2"
	NotationCentaur    = "1*,~1/2"
	NotationAdmiral    = "n+,1*"
	NotationMissionary = "nX,1*"
)

// StandardBoard is the orthodox starting position.
const StandardBoard = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

// StandardPieces returns a fresh catalogue of the orthodox pieces with the
// king marked royal.
func StandardPieces() PieceList {
	defs := []struct {
		sym, name, notation string
		value               float64
	}{
		{"k", "King", NotationKing, 100},
		{"q", "Queen", NotationQueen, 8},
		{"r", "Rook", NotationRook, 5},
		{"b", "Bishop", NotationBishop, 3},
		{"n", "Knight", NotationKnight, 3},
		{"p", "Pawn", NotationPawn, 1},
	}
	pieces := make(PieceList, len(defs))
	for _, d := range defs {
		p, err := NewPiece(d.name, d.value, d.notation)
		if err != nil {
			panic(err) // constants above always compile
		}
		pieces[d.sym] = p
	}
	pieces["k"].Royal = true
	return pieces
}

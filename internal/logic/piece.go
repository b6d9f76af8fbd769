// internal/logic/piece.go
package logic

// GamePiece is a piece standing on a board.
type GamePiece struct {
	Symbol   string `json:"symbol"` // lower-case catalogue key
	Color    Color  `json:"color"`
	HasMoved bool   `json:"hasMoved"`
}

// Piece is a catalogue entry. It is immutable once a ruleset is built.
type Piece struct {
	Name     string
	Value    float64
	Notation string // source text of Moves
	Moves    []Movement

	// Hook identifiers resolved by the ruleset; empty when unused.
	AfterMove    string
	AfterCapture string
	ExtraMoves   string

	Royal bool
}

// PieceList maps a piece symbol to its catalogue entry.
type PieceList map[string]*Piece

// NewPiece compiles notation into a catalogue entry.
func NewPiece(name string, value float64, notation string) (*Piece, error) {
	moves, err := CompilePiece(notation)
	if err != nil {
		return nil, err
	}
	return &Piece{Name: name, Value: value, Notation: notation, Moves: moves}, nil
}

// isRoyal reports whether p is a royal piece of color c in pieces.
func (pl PieceList) isRoyal(p *GamePiece, c Color) bool {
	if p == nil || p.Color != c {
		return false
	}
	def, ok := pl[p.Symbol]
	return ok && def.Royal
}

// internal/logic/board.go
//
// Board model and board-notation parser.
// Responsibilities:
//   - Parse board notation ("rnbqkbnr/pppppppp/8/...") into a Board.
//   - Bounds-checked cell access, cloning, and move application.
//   - Render the board back to notation or to a text grid.
//
// Notes:
//   - Row-major; y = 0 is the top row, x grows to the right.
//   - Upper-case letters are White, lower-case Black. A '!' before a piece
//     marks Yellow. "(name)" places a piece with a multi-letter symbol.
//   - Rows shorter than the widest row are padded with empty cells.
package logic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Point is a board coordinate. It encodes to JSON as [x, y].
type Point struct{ X, Y int }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON accepts exactly [x, y].
func (p *Point) UnmarshalJSON(b []byte) error {
	var xy []int
	if err := json.Unmarshal(b, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point: want [x, y], got %d values", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Board is a rectangular grid of optional pieces.
type Board struct {
	Width, Height int
	Rows          [][]*GamePiece
}

// NewBoard returns an empty width x height board.
func NewBoard(width, height int) *Board {
	b := &Board{Width: width, Height: height, Rows: make([][]*GamePiece, height)}
	for y := range b.Rows {
		b.Rows[y] = make([]*GamePiece, width)
	}
	return b
}

// ParseBoard parses board notation. Whitespace is ignored.
func ParseBoard(text string) (*Board, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if clean == "" {
		return nil, &BoardParseError{Reason: "empty board"}
	}

	var rows [][]*GamePiece
	width := 0
	for y, line := range strings.Split(clean, "/") {
		row, err := parseRow(y, line)
		if err != nil {
			return nil, err
		}
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}
	for y := range rows {
		for len(rows[y]) < width {
			rows[y] = append(rows[y], nil)
		}
	}
	return &Board{Width: width, Height: len(rows), Rows: rows}, nil
}

func parseRow(y int, line string) ([]*GamePiece, error) {
	if line == "" {
		return nil, &BoardParseError{Row: y, Reason: "empty row"}
	}
	var row []*GamePiece
	yellow := false
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			if yellow {
				return nil, &BoardParseError{Row: y, Col: len(row), Reason: "'!' must precede a piece"}
			}
			j := i
			for j < len(line) && line[j] >= '0' && line[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(line[i:j])
			if err != nil || n == 0 {
				return nil, &BoardParseError{Row: y, Col: len(row), Reason: fmt.Sprintf("bad empty run %q", line[i:j])}
			}
			if n > maxBoardSide {
				return nil, &BoardParseError{Row: y, Col: len(row), Reason: fmt.Sprintf("empty run %d exceeds %d", n, maxBoardSide)}
			}
			row = append(row, make([]*GamePiece, n)...)
			i = j
		case c == '!':
			if yellow {
				return nil, &BoardParseError{Row: y, Col: len(row), Reason: "repeated '!'"}
			}
			yellow = true
			i++
		case c == '(':
			end := strings.IndexByte(line[i:], ')')
			if end < 0 {
				return nil, &BoardParseError{Row: y, Col: len(row), Reason: "unterminated long piece"}
			}
			name := line[i+1 : i+end]
			if name == "" || !isLetters(name) {
				return nil, &BoardParseError{Row: y, Col: len(row), Reason: fmt.Sprintf("bad long piece %q", name)}
			}
			row = append(row, newPieceFromToken(name, yellow))
			yellow = false
			i += end + 1
		case isLetter(c):
			row = append(row, newPieceFromToken(line[i:i+1], yellow))
			yellow = false
			i++
		default:
			return nil, &BoardParseError{Row: y, Col: len(row), Reason: fmt.Sprintf("unexpected %q", c)}
		}
		if len(row) > maxBoardSide {
			return nil, &BoardParseError{Row: y, Col: len(row), Reason: "row too wide"}
		}
	}
	if yellow {
		return nil, &BoardParseError{Row: y, Col: len(row), Reason: "'!' must precede a piece"}
	}
	return row, nil
}

// maxBoardSide bounds parsed boards so a typo like "99999" cannot allocate
// an absurd grid.
const maxBoardSide = 256

func newPieceFromToken(tok string, yellow bool) *GamePiece {
	color := Black
	switch {
	case yellow:
		color = Yellow
	case tok == strings.ToUpper(tok):
		color = White
	}
	return &GamePiece{Symbol: strings.ToLower(tok), Color: color}
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) {
			return false
		}
	}
	return true
}

// Validate checks that every piece on the board exists in pieces.
func (b *Board) Validate(pieces PieceList) error {
	for y, row := range b.Rows {
		for x, p := range row {
			if p == nil {
				continue
			}
			if _, ok := pieces[p.Symbol]; !ok {
				return &BoardParseError{Row: y, Col: x, Reason: fmt.Sprintf("unknown piece %q", p.Symbol), Err: ErrUnknownPiece}
			}
		}
	}
	return nil
}

// InBounds reports whether (x, y) lies on the board.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns the piece at (x, y). ok is false when (x, y) is off the board.
func (b *Board) At(x, y int) (p *GamePiece, ok bool) {
	if !b.InBounds(x, y) {
		return nil, false
	}
	return b.Rows[y][x], true
}

// Set places p (nil clears) at (x, y).
func (b *Board) Set(x, y int, p *GamePiece) error {
	if !b.InBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d) outside %dx%d board", ErrInvalidMove, x, y, b.Width, b.Height)
	}
	b.Rows[y][x] = p
	return nil
}

// Clone returns a deep copy; pieces are copied, not shared.
func (b *Board) Clone() *Board {
	c := &Board{Width: b.Width, Height: b.Height, Rows: make([][]*GamePiece, len(b.Rows))}
	for y, row := range b.Rows {
		c.Rows[y] = make([]*GamePiece, len(row))
		for x, p := range row {
			if p != nil {
				cp := *p
				c.Rows[y][x] = &cp
			}
		}
	}
	return c
}

// ApplyMove moves the piece at m.From to m.To, marks it as moved and
// reports whether the destination was occupied.
func (b *Board) ApplyMove(m GameMove) (captured bool, err error) {
	if !b.InBounds(m.From.X, m.From.Y) || !b.InBounds(m.To.X, m.To.Y) {
		return false, &MoveError{Move: m, Reason: "outside the board"}
	}
	if m.From == m.To {
		return false, &MoveError{Move: m, Reason: "source and destination are the same"}
	}
	p := b.Rows[m.From.Y][m.From.X]
	if p == nil {
		return false, &MoveError{Move: m, Reason: "no piece on source square"}
	}
	captured = b.Rows[m.To.Y][m.To.X] != nil
	b.Rows[m.From.Y][m.From.X] = nil
	p.HasMoved = true
	b.Rows[m.To.Y][m.To.X] = p
	return captured, nil
}

// PositionsOf lists the squares whose piece satisfies pred, scanning rows
// top to bottom and each row left to right.
func (b *Board) PositionsOf(pred func(*GamePiece) bool) []Point {
	var out []Point
	for y, row := range b.Rows {
		for x, p := range row {
			if p != nil && pred(p) {
				out = append(out, Point{x, y})
			}
		}
	}
	return out
}

// Notation renders the board in board notation; ParseBoard(b.Notation())
// yields an equal board apart from HasMoved flags.
func (b *Board) Notation() string {
	var sb strings.Builder
	for y, row := range b.Rows {
		if y > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for _, p := range row {
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pieceToken(p))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	return sb.String()
}

func pieceToken(p *GamePiece) string {
	sym := p.Symbol
	if p.Color == White {
		sym = strings.ToUpper(sym)
	}
	if len(p.Symbol) > 1 {
		sym = "(" + sym + ")"
	}
	if p.Color == Yellow {
		sym = "!" + sym
	}
	return sym
}

// String draws the board as a text grid, one "|a|b|" line per row.
func (b *Board) String() string {
	var sb strings.Builder
	for _, row := range b.Rows {
		sb.WriteByte('|')
		for _, p := range row {
			if p == nil {
				sb.WriteString(" |")
				continue
			}
			sb.WriteString(pieceToken(p))
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

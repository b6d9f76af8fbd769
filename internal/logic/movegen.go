// internal/logic/movegen.go
//
// Pseudo-legal move generation.
// Responsibilities:
//   - Walk every rule of every piece of a color over the board.
//   - Honor capture-only, no-capture, leaper, locust, initial-only, repeat,
//     nested groups and follow-up (then) rules.
//   - Union in destinations supplied by an ExtensionHook.
//
// Notes:
//   - Output is sorted by (from, to) and free of duplicates.
//   - The board is only read; callers clone it for look-ahead.
package logic

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// GameMove moves the piece at From to To.
type GameMove struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

func (m GameMove) String() string { return fmt.Sprintf("%v->%v", m.From, m.To) }

// Compare orders moves by From then To, x before y.
func (m GameMove) Compare(o GameMove) int {
	return cmp.Or(
		cmp.Compare(m.From.X, o.From.X),
		cmp.Compare(m.From.Y, o.From.Y),
		cmp.Compare(m.To.X, o.To.X),
		cmp.Compare(m.To.Y, o.To.Y),
	)
}

// ExtensionHook supplies extra destinations for pieces whose catalogue
// entry names an extra-moves hook. It is called at most once per piece
// per generation and must be fast and free of side effects on board.
type ExtensionHook interface {
	ExtraMoves(id string, at Point, board *Board) ([]Point, error)
}

// GenerateMoves returns every pseudo-legal move for color. A nil hook
// disables extension moves. Hook failures are collected into the returned
// error (each an *ExtensionError) while the geometric moves and the moves
// of other pieces are still returned.
func GenerateMoves(color Color, pieces PieceList, board *Board, hook ExtensionHook) ([]GameMove, error) {
	var (
		moves []GameMove
		errs  []error
	)
	for y, row := range board.Rows {
		for x, p := range row {
			if p == nil || p.Color != color {
				continue
			}
			def, ok := pieces[p.Symbol]
			if !ok {
				continue
			}
			at := Point{x, y}
			moves = pieceMoves(moves, at, p, def, board)
			if hook == nil || def.ExtraMoves == "" {
				continue
			}
			extra, err := hook.ExtraMoves(def.ExtraMoves, at, board)
			if err != nil {
				errs = append(errs, &ExtensionError{Hook: def.ExtraMoves, At: at, Err: err})
				continue
			}
			for _, to := range extra {
				if !board.InBounds(to.X, to.Y) {
					errs = append(errs, &ExtensionError{Hook: def.ExtraMoves, At: at,
						Err: fmt.Errorf("destination %v outside the board", to)})
					continue
				}
				moves = append(moves, GameMove{From: at, To: to})
			}
		}
	}
	return normalize(moves), errors.Join(errs...)
}

// normalize sorts and deduplicates moves in place.
func normalize(moves []GameMove) []GameMove {
	slices.SortFunc(moves, GameMove.Compare)
	return slices.Compact(moves)
}

// pieceMoves appends the geometric moves of one piece, unsorted.
func pieceMoves(dst []GameMove, at Point, p *GamePiece, def *Piece, board *Board) []GameMove {
	w := walker{board: board, mover: p}
	for i := range def.Moves {
		dst = append(dst, w.rule(at, &def.Moves[i])...)
	}
	return dst
}

// walker evaluates rules for a single moving piece.
type walker struct {
	board *Board
	mover *GamePiece
}

// rule evaluates m from origin: directions and groups, then repeats, then
// the follow-up rule. Results are anchored at origin.
func (w walker) rule(origin Point, m *Movement) []GameMove {
	if m.Initial && w.mover.HasMoved {
		return nil
	}
	moves := w.hop(origin, m)

	if m.Repeat != nil {
		moves = w.repeat(origin, m, moves)
	}

	if m.Then == nil {
		return moves
	}
	out := make([]GameMove, 0, len(moves))
	for _, mv := range moves {
		out = append(out, mv)
		for _, next := range w.rule(mv.To, m.Then) {
			out = append(out, GameMove{From: origin, To: next.To})
		}
	}
	return out
}

// hop evaluates the directions of m once from origin.
func (w walker) hop(origin Point, m *Movement) []GameMove {
	var moves []GameMove
	for _, d := range m.Directions {
		if d.Kind == DirGroup {
			moves = append(moves, w.rule(origin, m.inherit(d.Group))...)
			continue
		}
		for _, v := range d.Vectors(w.mover.Color, m.Distance) {
			moves = w.walk(moves, origin, m, v)
		}
	}
	return moves
}

// repeat re-applies m from every empty destination until no new square is
// reached or the repeat distance is exhausted.
func (w walker) repeat(origin Point, m *Movement, first []GameMove) []GameMove {
	seen := map[Point]bool{origin: true}
	out := first
	frontier := first
	limit := m.Repeat.limit()
	for hops := 2; len(frontier) > 0 && (limit == 0 || hops <= limit); hops++ {
		var next []GameMove
		for _, mv := range frontier {
			if seen[mv.To] {
				continue
			}
			seen[mv.To] = true
			if p, _ := w.board.At(mv.To.X, mv.To.Y); p != nil {
				continue
			}
			for _, h := range w.hop(mv.To, m) {
				next = append(next, GameMove{From: origin, To: h.To})
			}
		}
		if m.Repeat.Accepts(hops) {
			out = append(out, next...)
		}
		frontier = next
	}
	return out
}

// walk steps from origin along v, appending every square m may end on.
func (w walker) walk(dst []GameMove, origin Point, m *Movement, v Vector) []GameMove {
	if v.DX == 0 && v.DY == 0 {
		return dst
	}
	own := w.mover.Color
	limit := m.Distance.limit()
	x, y := origin.X, origin.Y
	leaped := false
	for step := 1; limit == 0 || step <= limit; step++ {
		x += v.DX
		y += v.DY
		target, ok := w.board.At(x, y)
		if !ok {
			break
		}
		// A locust that has not yet leaped treats every piece as a hurdle.
		hurdle := target != nil && (m.NoCapture || target.Color == own || (m.Locust && !leaped))
		stops := !m.Leaper && (!m.Locust || leaped)

		if m.Distance.Accepts(step) {
			switch {
			case target == nil:
				if !m.Capture && !(m.Locust && leaped) {
					dst = append(dst, GameMove{From: origin, To: Point{x, y}})
				}
			case !hurdle:
				dst = append(dst, GameMove{From: origin, To: Point{x, y}})
			}
		}
		if target != nil {
			if stops {
				break
			}
			if hurdle && m.Distance.Accepts(step) {
				leaped = true
			}
		}
	}
	return dst
}

// internal/logic/movement.go
//
// Rule model produced by the notation compiler.
// Responsibilities:
//   - Distance: how many steps a rule may travel (any, exact, range, hippogonal).
//   - Direction: which geometric directions a rule walks in, relative to color.
//   - Movement: a single rule with its flags and optional follow-up rule.
//
// Notes:
//   - A Movement owns its follow-up (Then) and nested group rules; the
//     structure is a finite tree, never shared or cyclic.
//   - Forward/backward vectors are mirrored for every color but White.
package logic

// DistanceKind tags the variant held by a Distance.
type DistanceKind uint8

const (
	DistanceAny DistanceKind = iota
	DistanceExact
	DistanceRange
	DistanceHippogonal
)

// Distance describes how far a rule travels.
// For DistanceExact Min == Max. For DistanceHippogonal Min and Max hold the
// two legs (m, n) of the leap.
type Distance struct {
	Kind     DistanceKind
	Min, Max int
}

func AnyDistance() Distance { return Distance{Kind: DistanceAny} }
func ExactDistance(n int) Distance { return Distance{Kind: DistanceExact, Min: n, Max: n} }
func RangeDistance(a, b int) Distance { return Distance{Kind: DistanceRange, Min: a, Max: b} }
func HippogonalDistance(m, n int) Distance {
	return Distance{Kind: DistanceHippogonal, Min: m, Max: n}
}

// Accepts reports whether a walk that has taken step steps may stop here.
// A hippogonal leap is always exactly one logical step.
func (d Distance) Accepts(step int) bool {
	switch d.Kind {
	case DistanceAny:
		return true
	case DistanceExact:
		return step == d.Min
	case DistanceRange:
		return step >= d.Min && step <= d.Max
	case DistanceHippogonal:
		return step == 1
	}
	return false
}

// limit is the largest step count Accepts can hold for, or 0 if unbounded.
func (d Distance) limit() int {
	switch d.Kind {
	case DistanceExact, DistanceRange:
		return d.Max
	case DistanceHippogonal:
		return 1
	}
	return 0
}

// DirectionKind tags the variant held by a Direction.
type DirectionKind uint8

const (
	DirAll DirectionKind = iota
	DirOrthogonal
	DirOrthogonalForward
	DirOrthogonalBackward
	DirOrthogonalSideways
	DirDiagonal
	DirDiagonalForward
	DirDiagonalBackward
	DirHippogonal
	DirGroup
)

// Direction is one direction class of a rule. DirGroup carries a nested rule
// that is evaluated from the same origin as its parent.
type Direction struct {
	Kind  DirectionKind
	Group *Movement
}

// Vector is a single step on the board.
type Vector struct{ DX, DY int }

// Vectors expands the direction into concrete step vectors for a color.
// Hippogonal directions take their legs from dist. Groups have no vectors.
func (d Direction) Vectors(c Color, dist Distance) []Vector {
	f := c.forward()
	switch d.Kind {
	case DirAll:
		return []Vector{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	case DirOrthogonal:
		return []Vector{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	case DirOrthogonalForward:
		return []Vector{{0, f}}
	case DirOrthogonalBackward:
		return []Vector{{0, -f}}
	case DirOrthogonalSideways:
		return []Vector{{1, 0}, {-1, 0}}
	case DirDiagonal:
		return []Vector{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	case DirDiagonalForward:
		return []Vector{{1, f}, {-1, f}}
	case DirDiagonalBackward:
		return []Vector{{1, -f}, {-1, -f}}
	case DirHippogonal:
		if dist.Kind != DistanceHippogonal {
			return nil
		}
		m, n := dist.Min, dist.Max
		out := make([]Vector, 0, 8)
		for _, v := range []Vector{
			{m, n}, {m, -n}, {-m, n}, {-m, -n},
			{n, m}, {n, -m}, {-n, m}, {-n, -m},
		} {
			if !containsVector(out, v) {
				out = append(out, v)
			}
		}
		return out
	}
	return nil
}

func containsVector(vs []Vector, v Vector) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

// Movement is one compiled movement rule.
type Movement struct {
	Distance   Distance
	Directions []Direction
	Then       *Movement // follow-up rule evaluated from every destination
	Repeat     *Distance // set by '&': number of repeated hops allowed

	Initial   bool // only while the piece has not moved
	Capture   bool // only onto enemy pieces
	NoCapture bool // only onto empty squares
	Leaper    bool // jumps over intermediate pieces
	Locust    bool // leaps the first obstacle, captures past it
}

// inherit returns a copy of the group rule g with the flags of parent OR-ed in.
func (m *Movement) inherit(g *Movement) *Movement {
	sub := *g
	sub.Initial = sub.Initial || m.Initial
	sub.Capture = sub.Capture || m.Capture
	sub.NoCapture = sub.NoCapture || m.NoCapture
	sub.Leaper = sub.Leaper || m.Leaper
	sub.Locust = sub.Locust || m.Locust
	return &sub
}

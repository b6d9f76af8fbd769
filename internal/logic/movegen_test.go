package logic

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBoard(t *testing.T, text string) *Board {
	t.Helper()
	b, err := ParseBoard(text)
	require.NoError(t, err)
	return b
}

func mustPieces(t *testing.T, defs map[string]string) PieceList {
	t.Helper()
	out := PieceList{}
	for sym, notation := range defs {
		p, err := NewPiece(sym, 0, notation)
		require.NoError(t, err)
		out[sym] = p
	}
	return out
}

func destinations(moves []GameMove) []Point {
	out := make([]Point, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.To)
	}
	return out
}

func TestGenerateMoves_PawnsFacingEachOther(t *testing.T) {
	moves, err := GenerateMoves(White, StandardPieces(), mustBoard(t, "4/pppp/PPPP/4"), nil)
	require.NoError(t, err)
	assert.Len(t, moves, 6)
	for _, m := range moves {
		assert.Equal(t, 1, m.To.Y, "only diagonal captures onto the black rank")
	}
}

func TestGenerateMoves_StartPosition(t *testing.T) {
	moves, err := GenerateMoves(White, StandardPieces(), mustBoard(t, StandardBoard), nil)
	require.NoError(t, err)
	assert.Len(t, moves, 20)
}

func TestGenerateMoves_Bishops(t *testing.T) {
	moves, err := GenerateMoves(White, StandardPieces(), mustBoard(t, "8/2b5/8/8/8/1B4B1/8/8"), nil)
	require.NoError(t, err)
	assert.Len(t, moves, 17)
}

func TestGenerateMoves_SortedAndStable(t *testing.T) {
	pieces := StandardPieces()
	b := mustBoard(t, "r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/2N2N2/PPPP1PPP/R1BQK2R")
	first, err := GenerateMoves(White, pieces, b, nil)
	require.NoError(t, err)
	second, err := GenerateMoves(White, pieces, b, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, slices.IsSortedFunc(first, GameMove.Compare))
	assert.Equal(t, len(first), len(slices.Compact(slices.Clone(first))))
	for _, m := range first {
		assert.True(t, b.InBounds(m.To.X, m.To.Y))
	}
}

func TestGenerateMoves_PawnDoubleStep(t *testing.T) {
	pieces := StandardPieces()

	moves, err := GenerateMoves(White, pieces, mustBoard(t, "1/1/1/P"), nil)
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 1}, {0, 2}}, destinations(moves))

	// blocked on the first square: no leaping over it
	moves, err = GenerateMoves(White, pieces, mustBoard(t, "1/1/n/P"), nil)
	require.NoError(t, err)
	assert.Empty(t, moves)

	// moved pawns lose the initial rule
	b := mustBoard(t, "1/1/1/1/P")
	_, err = b.ApplyMove(GameMove{From: Point{0, 4}, To: Point{0, 3}})
	require.NoError(t, err)
	moves, err = GenerateMoves(White, pieces, b, nil)
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 2}}, destinations(moves))

	// black pawns walk down the board
	moves, err = GenerateMoves(Black, pieces, mustBoard(t, "p/1/1/1"), nil)
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 1}, {0, 2}}, destinations(moves))
}

func TestGenerateMoves_Flags(t *testing.T) {
	tests := []struct {
		name     string
		notation string
		board    string
		want     []Point
	}{
		{"slider stops at enemy", "n>", "r/1/1/R", []Point{{0, 0}, {0, 1}, {0, 2}}},
		{"slider stops before own", "n>", "R/1/1/R", []Point{{0, 1}, {0, 2}}},
		{"no-capture", "on>", "r/1/1/R", []Point{{0, 1}, {0, 2}}},
		{"capture-only", "cn>", "r/1/1/R", []Point{{0, 0}}},
		{"leaper passes pieces", "~n>", "1/r/R/R", []Point{{0, 0}, {0, 1}}},
		{"range", "2-3>", "1/1/1/1/R", []Point{{0, 1}, {0, 2}}},
		{"locust leaps then captures", "^n>", "r/1/r/1/R", []Point{{0, 0}, {0, 3}}},
		{"locust leaps its own piece", "^n>", "r/1/R/1/R", []Point{{0, 0}, {0, 3}}},
		{"locust slides before its hurdle", "^n>", "1/1/1/R", []Point{{0, 0}, {0, 1}, {0, 2}}},
		{"then", "o1>.1=", "3/3/1R1", []Point{{0, 1}, {1, 1}, {2, 1}}},
		{"group", "1>(1=)", "3/1R1", []Point{{0, 1}, {1, 0}, {2, 1}}},
		{"repeat", "&o2=", "R4", []Point{{2, 0}, {4, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := mustPieces(t, map[string]string{"r": tt.notation})
			b := mustBoard(t, tt.board)
			// Only the bottom-most white piece should move.
			var origin Point
			for _, p := range b.PositionsOf(func(p *GamePiece) bool { return p.Color == White }) {
				origin = p
			}
			moves, err := GenerateMoves(White, pieces, b, nil)
			require.NoError(t, err)
			var got []Point
			for _, m := range moves {
				if m.From == origin {
					got = append(got, m.To)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubHook struct {
	calls int
	dests map[Point][]Point
	err   error
}

func (h *stubHook) ExtraMoves(id string, at Point, _ *Board) ([]Point, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return h.dests[at], nil
}

func TestGenerateMoves_ExtensionHook(t *testing.T) {
	pieces := StandardPieces()
	pieces["k"].ExtraMoves = "jump"
	b := mustBoard(t, "4/4/4/K3")

	hook := &stubHook{dests: map[Point][]Point{{0, 3}: {{3, 0}, {1, 3}}}}
	moves, err := GenerateMoves(White, pieces, b, hook)
	require.NoError(t, err)
	assert.Equal(t, 1, hook.calls)
	assert.Equal(t, []Point{{0, 2}, {1, 2}, {1, 3}, {3, 0}}, destinations(moves))

	geometric, err := GenerateMoves(White, pieces, b, nil)
	require.NoError(t, err)
	assert.Len(t, geometric, 3)

	failing := &stubHook{err: errors.New("boom")}
	moves, err = GenerateMoves(White, pieces, b, failing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtension))
	var ee *ExtensionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "jump", ee.Hook)
	assert.Equal(t, geometric, moves)

	offBoard := &stubHook{dests: map[Point][]Point{{0, 3}: {{9, 9}, {3, 3}}}}
	moves, err = GenerateMoves(White, pieces, b, offBoard)
	require.Error(t, err)
	assert.Contains(t, destinations(moves), Point{3, 3})
	assert.NotContains(t, destinations(moves), Point{9, 9})
}

func TestGenerateMoves_UnknownSymbolSkipped(t *testing.T) {
	moves, err := GenerateMoves(White, StandardPieces(), mustBoard(t, "Z3/4/4/K3"), nil)
	require.NoError(t, err)
	for _, m := range moves {
		assert.Equal(t, Point{0, 3}, m.From)
	}
}

func TestGenerateMoves_FairyPieces(t *testing.T) {
	tests := []struct {
		name     string
		notation string
		want     int
	}{
		{"queen", NotationQueen, 27},
		{"amazon", NotationAmazon, 35},
		{"marshal", NotationMarshal, 22},
		{"cardinal", NotationCardinal, 21},
		{"centaur", NotationCentaur, 16},
		{"admiral", NotationAdmiral, 18},
		{"missionary", NotationMissionary, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := mustPieces(t, map[string]string{"a": tt.notation})
			moves, err := GenerateMoves(White, pieces, mustBoard(t, "8/8/8/8/3A4/8/8/8"), nil)
			require.NoError(t, err)
			assert.Len(t, moves, tt.want)
		})
	}
}

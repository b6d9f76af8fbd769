package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alfheimr-Chess/alfheimr-server/assets"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
)

func TestDefault(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "Standard chess", rs.Name)
	assert.Equal(t, []logic.Color{logic.White, logic.Black}, rs.Colors)
	require.Contains(t, rs.Pieces, "k")
	assert.True(t, rs.Pieces["k"].Royal)
	assert.Nil(t, rs.Extension())

	b := rs.NewBoard()
	assert.Equal(t, logic.StandardBoard, b.Notation())

	// each call hands out an independent board
	_, err = b.ApplyMove(logic.GameMove{From: logic.Point{X: 4, Y: 6}, To: logic.Point{X: 4, Y: 4}})
	require.NoError(t, err)
	assert.Equal(t, logic.StandardBoard, rs.NewBoard().Notation())

	assert.EqualValues(t, 400, logic.Perft(2, logic.White, rs.Colors, rs.Pieces, rs.NewBoard()))
}

func TestBundledRulesetsLoad(t *testing.T) {
	names, err := assets.Rulesets()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			rs, err := Bundled(name)
			require.NoError(t, err)
			moves, err := logic.LegalMoves(rs.Colors[0], rs.Pieces, rs.NewBoard(), rs.Extension())
			require.NoError(t, err)
			assert.NotEmpty(t, moves)
		})
	}
}

func TestLoad_ThreeColors(t *testing.T) {
	rs, err := Load(strings.NewReader(`
name: Three
colors: [white, black, yellow]
board: "k2/1!k1/2K"
pieces:
  k: {name: King, moves: "1*", royal: true}
`))
	require.NoError(t, err)
	assert.Equal(t, []logic.Color{logic.White, logic.Black, logic.Yellow}, rs.Colors)
	p, _ := rs.NewBoard().At(1, 1)
	assert.Equal(t, logic.Yellow, p.Color)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		is   error
	}{
		{"bad yaml", "name: [", nil},
		{"unknown field", "name: x\nboard: k\nspeed: 3\npieces: {k: {moves: '1*'}}", nil},
		{"no name", "board: k\npieces: {k: {moves: '1*'}}", nil},
		{"no pieces", "name: x\nboard: k", nil},
		{"bad notation", "name: x\nboard: k\npieces: {k: {moves: '1'}}", logic.ErrNotation},
		{"bad board", "name: x\nboard: 'k//k'\npieces: {k: {moves: '1*'}}", logic.ErrBoardParse},
		{"unknown board piece", "name: x\nboard: kq\npieces: {k: {moves: '1*'}}", logic.ErrUnknownPiece},
		{"bad symbol", "name: x\nboard: k\npieces: {K: {moves: '1*'}}", nil},
		{"unknown hook", "name: x\nboard: k\npieces: {k: {moves: '1*', after_move: fly}}", ErrUnknownHook},
		{"wrong slot", "name: x\nboard: k\npieces: {k: {moves: '1*', extra_moves: explode}}", ErrHookKind},
		{"bad promote", "name: x\nboard: k\npieces: {k: {moves: '1*', after_move: 'promote:z'}}", nil},
		{"bad hill", "name: x\nboard: k\npieces: {k: {moves: '1*', after_move: 'hill:a'}}", nil},
		{"unlisted color", "name: x\nboard: 'k!k'\npieces: {k: {moves: '1*'}}", nil},
		{"one color", "name: x\ncolors: [white]\nboard: K\npieces: {k: {moves: '1*'}}", nil},
		{"duplicate color", "name: x\ncolors: [white, white]\nboard: K\npieces: {k: {moves: '1*'}}", nil},
		{"unknown color", "name: x\ncolors: [white, green]\nboard: K\npieces: {k: {moves: '1*'}}", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), err.Error())
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("does/not/exist.yaml")
	require.Error(t, err)
}

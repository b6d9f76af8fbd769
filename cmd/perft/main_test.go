package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/rules"
)

func TestDivide(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	board := rs.NewBoard()
	root, err := logic.LegalMoves(logic.White, rs.Pieces, board, nil)
	require.NoError(t, err)

	counts, err := divide(context.Background(), rs, board, root, 2, 4)
	require.NoError(t, err)
	require.Len(t, counts, 20)
	var total uint64
	for _, c := range counts {
		assert.EqualValues(t, 20, c)
		total += c
	}
	assert.EqualValues(t, 400, total)
	assert.Equal(t, logic.StandardBoard, board.Notation(), "root board untouched")
}

func TestRun_BadInput(t *testing.T) {
	assert.Error(t, run("", "", 0, 1))
	assert.Error(t, run("", "8/8/8/8/8/8/8/8/x", 1, 1))
}

package journal

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Journal {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	j, err := Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndList(t *testing.T) {
	j := openMem(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Move{Room: "R1", User: "amy", Action: ActionPlace, Kind: "queen"}))
	require.NoError(t, j.Record(ctx, Move{Room: "R2", User: "cat", Action: ActionPlace, Kind: "ant"}))
	require.NoError(t, j.Record(ctx, Move{Room: "R1", User: "bob", Action: ActionPlace, Kind: "beetle", X: 1, Z: 0}))

	moves, err := j.List(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "queen", moves[0].Kind)
	assert.Equal(t, "beetle", moves[1].Kind)
	assert.Equal(t, 1, moves[1].X)
	assert.False(t, moves[0].CreatedAt.IsZero())
}

func TestRecordIgnoresCallerID(t *testing.T) {
	j := openMem(t)
	ctx := context.Background()
	require.NoError(t, j.Record(ctx, Move{ID: 7, Room: "R1"}))
	require.NoError(t, j.Record(ctx, Move{ID: 7, Room: "R1"}))

	moves, err := j.List(ctx, "R1")
	require.NoError(t, err)
	assert.Len(t, moves, 2)
}

func TestClosed(t *testing.T) {
	j := openMem(t)
	require.NoError(t, j.Close())
	assert.ErrorIs(t, j.Record(context.Background(), Move{}), ErrClosed)
	_, err := j.List(context.Background(), "R1")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, j.Close())

	var none *Journal
	assert.ErrorIs(t, none.Record(context.Background(), Move{}), ErrClosed)
}

package board

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/hexhive/internal/hex"
)

var origin = hex.Axial{}

func TestPut_QueenOnEmptyBoard(t *testing.T) {
	b := New()
	b.Put(Tile{Kind: "queen"}, origin)

	top, ok := b.Get(origin)
	require.True(t, ok)
	assert.Equal(t, "queen", top.Kind)
	assert.Equal(t, 0, top.Depth)
	require.NotNil(t, top.Coord)
	assert.Equal(t, origin, *top.Coord)
}

func TestStack_BeetleUnderQueen(t *testing.T) {
	b := New()
	b.Put(Tile{Kind: "beetle"}, origin)
	b.Put(Tile{Kind: "queen"}, origin)

	top, ok := b.Get(origin)
	require.True(t, ok)
	assert.Equal(t, "queen", top.Kind)
	assert.Equal(t, 1, top.Depth)

	popped, ok := b.Remove(origin)
	require.True(t, ok)
	assert.Equal(t, "queen", popped.Kind)

	top, ok = b.Get(origin)
	require.True(t, ok)
	assert.Equal(t, "beetle", top.Kind)
	assert.Equal(t, 0, top.Depth)
}

func TestRemove_EmptyCellIsNoop(t *testing.T) {
	b := New()
	b.Put(Tile{Kind: "ant"}, hex.Axial{X: 1})

	_, ok := b.Remove(origin)
	assert.False(t, ok)
	assert.Equal(t, 1, b.Tiles())

	b.Remove(hex.Axial{X: 1})
	_, ok = b.Remove(hex.Axial{X: 1})
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}

func TestStackDepths_StayContiguous(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cells := []hex.Axial{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: -1}}
	b := New()
	for i := 0; i < 2000; i++ {
		c := cells[rng.Intn(len(cells))]
		if rng.Intn(3) == 0 {
			b.Remove(c)
		} else {
			b.Put(Tile{Kind: "beetle"}, c)
		}
		for _, cell := range b.Cells() {
			for depth, tile := range cell.Stack {
				require.Equal(t, depth, tile.Depth, "cell %v", cell.Coord)
			}
		}
	}
}

func TestReplaceAll_DiscardsLocalStacks(t *testing.T) {
	b := New()
	b.Put(Tile{Kind: "spider"}, hex.Axial{X: 5, Y: 5})

	b.ReplaceAll(Snapshot{Cells: []Cell{
		{Coord: origin, Stack: []Tile{{Kind: "beetle", Depth: 9}, {Kind: "queen", Depth: 3}}},
	}})

	assert.False(t, b.Occupied(hex.Axial{X: 5, Y: 5}))
	stack := b.Stack(origin)
	require.Len(t, stack, 2)
	assert.Equal(t, 0, stack[0].Depth)
	assert.Equal(t, 1, stack[1].Depth)
}

func TestDecodeSnapshot(t *testing.T) {
	payload := `{"v":1,"rows":{"0":{"0":[{"name":"beetle","owner":"bob"},{"name":"queen","owner":"amy"}]},"-1":{"2":[{"name":"ant","owner":"amy"}]}}}`
	wrapped, err := json.Marshal(payload)
	require.NoError(t, err)

	for name, raw := range map[string]json.RawMessage{
		"object": json.RawMessage(payload),
		"string": wrapped,
	} {
		t.Run(name, func(t *testing.T) {
			snap, err := DecodeSnapshot(raw, "amy")
			require.NoError(t, err)

			b := New()
			b.ReplaceAll(snap)
			top, ok := b.Get(origin)
			require.True(t, ok)
			assert.Equal(t, "queen", top.Kind)
			assert.Equal(t, 1, top.Depth)
			assert.True(t, top.Local)

			under := b.Stack(origin)[0]
			assert.False(t, under.Local)

			ant, ok := b.Get(hex.Axial{X: 2, Y: -1})
			require.True(t, ok)
			assert.Equal(t, "ant", ant.Kind)
		})
	}
}

func TestDecodeSnapshot_FailsClosed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"wrong version", `{"v":2,"rows":{}}`, ErrSnapshotVersion},
		{"missing version", `{"rows":{}}`, ErrSnapshotVersion},
		{"bad row key", `{"v":1,"rows":{"a":{"0":[{"name":"ant"}]}}}`, ErrSnapshotSchema},
		{"bad col key", `{"v":1,"rows":{"0":{"1.5":[{"name":"ant"}]}}}`, ErrSnapshotSchema},
		{"empty kind", `{"v":1,"rows":{"0":{"0":[{"name":""}]}}}`, ErrSnapshotSchema},
		{"not json", `{"v":1,`, ErrSnapshotSchema},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSnapshot(json.RawMessage(tc.raw), "")
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSnapshot_Idempotent(t *testing.T) {
	src := New()
	src.Put(Tile{Kind: "beetle", Owner: "a"}, origin)
	src.Put(Tile{Kind: "queen", Owner: "b"}, origin)
	src.Put(Tile{Kind: "ant", Owner: "a"}, hex.Axial{X: -3, Y: 2})

	raw, err := json.Marshal(EncodeSnapshot(src.Snapshot()))
	require.NoError(t, err)
	snap, err := DecodeSnapshot(raw, "")
	require.NoError(t, err)

	b := New()
	b.ReplaceAll(snap)
	once := b.Clone()
	b.ReplaceAll(snap)

	assert.True(t, b.Equal(once))
	assert.True(t, b.Equal(src))
}

func TestFrontier(t *testing.T) {
	b := New()
	assert.Equal(t, []hex.Axial{{}}, b.Frontier())

	b.Put(Tile{Kind: "queen"}, origin)
	f := b.Frontier()
	assert.Len(t, f, 6)
	for _, c := range f {
		assert.True(t, hex.Adjacent(c, origin))
	}

	b.Put(Tile{Kind: "ant"}, hex.Axial{X: 1})
	for _, c := range b.Frontier() {
		assert.False(t, b.Occupied(c))
	}
}

func TestInventory(t *testing.T) {
	inv := NewInventory()
	assert.Equal(t, 3, inv.Count("ant"))
	assert.True(t, inv.Take("ant"))
	assert.Equal(t, 2, inv.Count("ant"))
	assert.True(t, inv.Take("queen"))
	assert.False(t, inv.Take("queen"))

	inv.Return("queen")
	assert.Equal(t, 1, inv.Count("queen"))

	inv.Replace(map[string]int{"ant": 3})
	assert.Equal(t, []string{"ant"}, inv.Kinds())
	assert.Equal(t, 3, inv.Count("ant"))
}

package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/hexhive/internal/board"
	"github.com/DoyleJ11/hexhive/internal/hex"
	"github.com/DoyleJ11/hexhive/pkg/protocol"
)

const (
	me    = "amy"
	rival = "bob"
)

func newPlayerState() *State {
	s := NewState("R1", me)
	s.Roster = Roster{Players: []string{me, rival}}
	return s
}

func intp(v int) *int { return &v }

func tileEvent(event, user, kind string, x, y int) protocol.Envelope {
	return protocol.MustNew(event, protocol.TileAction{
		Room:     "R1",
		Username: user,
		Data:     protocol.TileData{Name: kind, Owner: user, X: intp(x), Y: intp(y)},
	})
}

func containsEvent(envs []protocol.Envelope, event string) bool {
	for _, e := range envs {
		if e.Event == event {
			return true
		}
	}
	return false
}

func TestApply_RemotePlaceOnEmptyBoard(t *testing.T) {
	s := newPlayerState()
	out, err := Apply(s, tileEvent(protocol.EvtPlaceTile, rival, "queen", 0, 0))
	require.NoError(t, err)
	assert.Empty(t, out)

	top, ok := s.Board.Get(hex.Axial{})
	require.True(t, ok)
	assert.Equal(t, "queen", top.Kind)
	assert.Equal(t, 0, top.Depth)
	assert.False(t, top.Local)
}

func TestApply_OwnPlaceClearsSelectionAndStopsHover(t *testing.T) {
	s := newPlayerState()
	s.Selection = &board.Tile{Kind: "ant", Owner: me, Local: true}
	pos := hex.Point{X: 3, Y: 4}
	s.Own = Hover{Pos: &pos}
	s.Marked = []hex.Axial{{X: 1}}

	out, err := Apply(s, tileEvent(protocol.EvtPlaceTile, me, "ant", 1, 0))
	require.NoError(t, err)

	assert.Nil(t, s.Selection)
	assert.False(t, s.Own.Active())
	assert.Empty(t, s.Marked)
	require.True(t, containsEvent(out, protocol.EvtMouseHover))

	var stop protocol.Hover
	require.NoError(t, out[0].Decode(&stop))
	assert.Equal(t, me, stop.Username)
	assert.Nil(t, stop.Data)

	top, _ := s.Board.Get(hex.Axial{X: 1})
	assert.True(t, top.Local)
}

func TestApply_RemotePickupPops(t *testing.T) {
	s := newPlayerState()
	s.Board.Put(board.Tile{Kind: "beetle", Owner: rival}, hex.Axial{})
	s.Board.Put(board.Tile{Kind: "queen", Owner: me}, hex.Axial{})

	_, err := Apply(s, tileEvent(protocol.EvtPickupTile, rival, "queen", 0, 0))
	require.NoError(t, err)

	top, ok := s.Board.Get(hex.Axial{})
	require.True(t, ok)
	assert.Equal(t, "beetle", top.Kind)
	assert.Nil(t, s.Selection)
}

func TestApply_OwnPickupEchoDoesNotPopTwice(t *testing.T) {
	s := newPlayerState()
	c := hex.Axial{X: 2, Y: 1}
	s.Board.Put(board.Tile{Kind: "beetle", Owner: me, Local: true}, c)
	s.Board.Put(board.Tile{Kind: "beetle", Owner: me, Local: true}, c)

	// Optimistic pickup as the pointer machine does it.
	picked, _ := s.Board.Remove(c)
	s.Selection = &picked
	s.Lifted = &c

	_, err := Apply(s, tileEvent(protocol.EvtPickupTile, me, "beetle", c.X, c.Y))
	require.NoError(t, err)
	assert.Len(t, s.Board.Stack(c), 1)
	require.NotNil(t, s.Selection)
	assert.Equal(t, c, *s.Selection.Coord)
}

func TestApply_LatePickupEchoAfterDropDoesNotPop(t *testing.T) {
	s := newPlayerState()
	c := hex.Axial{X: 0, Y: 0}
	s.Board.Put(board.Tile{Kind: "queen", Owner: rival}, c)
	s.Board.Put(board.Tile{Kind: "beetle", Owner: me, Local: true}, c)

	s.Board.Remove(c)
	s.Lifted = &c
	s.Selection = nil // dropped before the echo

	_, err := Apply(s, tileEvent(protocol.EvtPickupTile, me, "beetle", c.X, c.Y))
	require.NoError(t, err)
	assert.Nil(t, s.Selection)
	assert.Nil(t, s.Lifted)
	top, ok := s.Board.Get(c)
	require.True(t, ok)
	assert.Equal(t, rival, top.Owner)
	assert.Equal(t, 1, s.Board.Tiles())
}

func TestApply_OwnPickupRederivesSelection(t *testing.T) {
	s := newPlayerState()
	c := hex.Axial{X: -1, Y: 3}
	s.Board.Put(board.Tile{Kind: "spider", Owner: me, Local: true}, c)

	_, err := Apply(s, tileEvent(protocol.EvtPickupTile, me, "spider", c.X, c.Y))
	require.NoError(t, err)
	assert.False(t, s.Board.Occupied(c))
	require.NotNil(t, s.Selection)
	assert.Equal(t, "spider", s.Selection.Kind)
	assert.Equal(t, c, *s.Selection.Coord)
}

func TestApply_StalePickupIsNoop(t *testing.T) {
	s := newPlayerState()
	_, err := Apply(s, tileEvent(protocol.EvtPickupTile, rival, "ant", 7, 7))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Board.Len())
}

func TestApply_SnapshotSupersedesLocalEdits(t *testing.T) {
	s := newPlayerState()
	s.Board.Put(board.Tile{Kind: "ant"}, hex.Axial{X: 9, Y: 9})

	snap := `{"v":1,"rows":{"0":{"0":[{"name":"queen","owner":"amy"}]}}}`
	env := protocol.Envelope{Event: protocol.EvtBoardState, Data: mustJSON(t, snap)}

	_, err := Apply(s, env)
	require.NoError(t, err)
	first := s.Board.Clone()

	_, err = Apply(s, env)
	require.NoError(t, err)

	assert.True(t, s.Board.Equal(first))
	assert.False(t, s.Board.Occupied(hex.Axial{X: 9, Y: 9}))
	top, _ := s.Board.Get(hex.Axial{})
	assert.True(t, top.Local)
}

func TestApply_BadSnapshotKeepsBoard(t *testing.T) {
	s := newPlayerState()
	s.Board.Put(board.Tile{Kind: "ant"}, hex.Axial{})

	_, err := Apply(s, protocol.Envelope{Event: protocol.EvtBoardState, Data: json.RawMessage(`{"v":99}`)})
	if !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("want ErrBadSnapshot, got %v", err)
	}
	assert.Equal(t, 1, s.Board.Tiles())
}

func TestApply_TileAmountsServerWins(t *testing.T) {
	s := newPlayerState()
	require.True(t, s.Inventory.Take("ant"))
	require.Equal(t, 2, s.Inventory.Count("ant"))

	env := protocol.MustNew(protocol.EvtTileAmounts, []protocol.TileAmount{
		{Name: "ant", Amount: 3},
		{Name: "queen", Amount: 1},
	})
	_, err := Apply(s, env)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Inventory.Count("ant"))
	assert.Equal(t, 0, s.Inventory.Count("spider"))
}

func TestApply_MarkedTilesReplaced(t *testing.T) {
	s := newPlayerState()
	s.Marked = []hex.Axial{{X: 5, Y: 5}}

	_, err := Apply(s, protocol.Envelope{Event: protocol.EvtMarkedTiles, Data: mustJSON(t, `[[0,1],[-1,2]]`)})
	require.NoError(t, err)
	assert.Equal(t, []hex.Axial{{X: 0, Y: 1}, {X: -1, Y: 2}}, s.Marked)
}

func TestApply_HoverRouting(t *testing.T) {
	hover := func(user string, data *protocol.HoverData) protocol.Envelope {
		return protocol.MustNew(protocol.EvtMouseHover, protocol.Hover{Username: user, Data: data})
	}
	at := &protocol.HoverData{Pos: protocol.Point{X: 10, Y: 20}, Tile: &protocol.TileData{Name: "ant"}}

	cases := []struct {
		name      string
		local     string
		actor     string
		wantOwn   bool
		wantEnemy bool
	}{
		{name: "player sees rival as enemy", local: me, actor: rival, wantEnemy: true},
		{name: "player echo lands in own", local: me, actor: me, wantOwn: true},
		{name: "spectator maps first player to own", local: "carl", actor: me, wantOwn: true},
		{name: "spectator maps second player to enemy", local: "carl", actor: rival, wantEnemy: true},
		{name: "spectator ignores other spectators", local: "carl", actor: "dana"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewState("R1", tc.local)
			s.Roster = Roster{Players: []string{me, rival}, Spectators: []string{"carl", "dana"}}

			_, err := Apply(s, hover(tc.actor, at))
			require.NoError(t, err)
			assert.Equal(t, tc.wantOwn, s.Own.Active())
			assert.Equal(t, tc.wantEnemy, s.Enemy.Active())
			if tc.wantEnemy {
				assert.Equal(t, "ant", s.Enemy.Tile.Kind)
				assert.Equal(t, hex.Point{X: 10, Y: 20}, *s.Enemy.Pos)
			}

			_, err = Apply(s, hover(tc.actor, nil))
			require.NoError(t, err)
			assert.False(t, s.Own.Active())
			assert.False(t, s.Enemy.Active())
		})
	}
}

func TestApply_FinishedDropsSelection(t *testing.T) {
	s := newPlayerState()
	s.Selection = &board.Tile{Kind: "ant"}
	_, err := Apply(s, protocol.MustNew(protocol.EvtFinished, protocol.Finished{Winner: me}))
	require.NoError(t, err)
	assert.Nil(t, s.Selection)
	require.NotNil(t, s.Outcome)
	assert.Equal(t, me, s.Outcome.Winner)

	_, err = Apply(s, protocol.MustNew(protocol.EvtBoardState, protocol.Snapshot{Version: protocol.SnapshotVersion}))
	require.NoError(t, err)
	assert.NotNil(t, s.Outcome, "empty board after reset keeps the result up")

	next := board.New()
	next.Put(board.Tile{Kind: "queen", Owner: rival}, hex.Axial{})
	_, err = Apply(s, protocol.MustNew(protocol.EvtBoardState, board.EncodeSnapshot(next.Snapshot())))
	require.NoError(t, err)
	assert.Nil(t, s.Outcome)
}

func TestApply_RejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		env  protocol.Envelope
		want error
	}{
		{"unknown event", protocol.Envelope{Event: "chatMessage"}, ErrUnknownEvent},
		{"place without cell", protocol.MustNew(protocol.EvtPlaceTile, protocol.TileAction{Username: rival, Data: protocol.TileData{Name: "ant"}}), ErrMalformed},
		{"pickup bad json", protocol.Envelope{Event: protocol.EvtPickupTile, Data: json.RawMessage(`[1,2`)}, ErrMalformed},
		{"empty amounts", protocol.Envelope{Event: protocol.EvtTileAmounts}, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newPlayerState()
			before := s.Board.Clone()
			_, err := Apply(s, tc.env)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			assert.True(t, s.Board.Equal(before))
		})
	}
}

func TestCanInteract(t *testing.T) {
	s := NewState("R1", "carl")
	assert.True(t, s.CanInteract(), "open seats")

	s.Roster = Roster{Players: []string{me, rival}}
	assert.False(t, s.CanInteract(), "spectator")

	s.LocalUser = rival
	assert.True(t, s.CanInteract())
}

func mustJSON(t *testing.T, s string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	return raw
}

// Package engine reduces inbound session events into the client's game state.
//
// The session server is the only authority. Apply never decides legality; it
// folds whatever the server declares into State and reports which follow-up
// events, if any, the client should send.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/hexhive/internal/board"
	"github.com/DoyleJ11/hexhive/internal/hex"
	"github.com/DoyleJ11/hexhive/pkg/protocol"
)

var ErrUnknownEvent = errors.New("unknown event")
var ErrBadSnapshot = errors.New("bad snapshot")
var ErrMalformed = protocol.ErrMalformed

/*
	boardState  -> Board.ReplaceAll (supersedes local edits); a new game clears Outcome
	placeTile   -> Board.Put; own placement clears Selection and emits a hover stop
	pickupTile  -> Board.Remove; own pickup keeps or re-derives Selection
	mouseHover  -> Own / Enemy hover by viewer role
	markedTiles -> Marked replaced
	tileAmounts -> Inventory replaced (server wins over local decrements)
	userList    -> Roster
	finished    -> Outcome, Selection dropped
*/

// Apply folds one inbound event into s. On error s is left as it was; callers
// are expected to drop the event, a later snapshot corrects any drift.
func Apply(s *State, env protocol.Envelope) ([]protocol.Envelope, error) {
	switch env.Event {
	case protocol.EvtBoardState:
		snap, err := board.DecodeSnapshot(env.Data, s.LocalUser)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		s.Board.ReplaceAll(snap)
		if s.Board.Len() > 0 {
			s.Outcome = nil
		}
		return nil, nil

	case protocol.EvtPlaceTile:
		var msg protocol.TileAction
		if err := env.Decode(&msg); err != nil {
			return nil, err
		}
		c, ok := wireCell(msg.Data)
		if !ok || msg.Data.Name == "" {
			return nil, fmt.Errorf("%s: %w: no target cell", env.Event, ErrMalformed)
		}
		if msg.Data.Owner == "" {
			msg.Data.Owner = msg.Username
		}
		s.Board.Put(TileFromWire(msg.Data, s.LocalUser), c)
		s.Marked = nil

		if msg.Username == s.LocalUser {
			s.Selection = nil
			s.Own = Hover{}
			stop := protocol.MustNew(protocol.EvtMouseHover, protocol.Hover{
				Room:     s.Room,
				Username: s.LocalUser,
			})
			return []protocol.Envelope{stop}, nil
		}
		if h := s.hoverFor(msg.Username); h != nil {
			*h = Hover{}
		}
		return nil, nil

	case protocol.EvtPickupTile:
		var msg protocol.TileAction
		if err := env.Decode(&msg); err != nil {
			return nil, err
		}
		c, ok := wireCell(msg.Data)
		if !ok {
			return nil, fmt.Errorf("%s: %w: no source cell", env.Event, ErrMalformed)
		}

		if msg.Username != s.LocalUser {
			s.Board.Remove(c)
			return nil, nil
		}
		// Our own pickup was applied optimistically. The echo consumes the
		// marker even when the selection was dropped in the meantime.
		if s.Lifted != nil && *s.Lifted == c {
			s.Lifted = nil
			return nil, nil
		}
		if sel := s.Selection; sel != nil && sel.Coord != nil && *sel.Coord == c {
			return nil, nil
		}
		if top, ok := s.Board.Remove(c); ok {
			s.Selection = &top
		}
		return nil, nil

	case protocol.EvtMouseHover:
		var msg protocol.Hover
		if err := env.Decode(&msg); err != nil {
			return nil, err
		}
		h := s.hoverFor(msg.Username)
		if h == nil {
			return nil, nil
		}
		if msg.Data == nil {
			*h = Hover{}
			return nil, nil
		}
		pos := hex.Point{X: msg.Data.Pos.X, Y: msg.Data.Pos.Y}
		next := Hover{Pos: &pos}
		if msg.Data.Tile != nil {
			t := TileFromWire(*msg.Data.Tile, s.LocalUser)
			next.Tile = &t
		}
		*h = next
		return nil, nil

	case protocol.EvtMarkedTiles:
		raw, err := protocol.Unwrap(env.Data)
		if err != nil {
			return nil, err
		}
		var marked protocol.Marked
		if err := json.Unmarshal(raw, &marked); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", env.Event, ErrMalformed, err)
		}
		cells := make([]hex.Axial, 0, len(marked))
		for _, m := range marked {
			cells = append(cells, hex.Axial{X: m[0], Y: m[1]})
		}
		s.Marked = cells
		return nil, nil

	case protocol.EvtTileAmounts:
		var amounts []protocol.TileAmount
		if err := env.Decode(&amounts); err != nil {
			return nil, err
		}
		counts := make(map[string]int, len(amounts))
		for _, a := range amounts {
			counts[a.Name] = a.Amount
		}
		s.Inventory.Replace(counts)
		return nil, nil

	case protocol.EvtUserList:
		var list protocol.UserList
		if err := env.Decode(&list); err != nil {
			return nil, err
		}
		s.Roster = Roster{Players: list.Players, Spectators: list.Spectators, Active: list.Active}
		return nil, nil

	case protocol.EvtFinished:
		var fin protocol.Finished
		if err := env.Decode(&fin); err != nil {
			return nil, err
		}
		s.Outcome = &Outcome{Winner: fin.Winner, Loser: fin.Loser}
		s.Selection = nil
		s.Marked = nil
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// hoverFor picks which hover slot an actor's broadcast lands in. Players see
// the counterpart as the enemy. Spectators map the first seated player to Own
// and the second to Enemy and ignore anyone else.
func (s *State) hoverFor(actor string) *Hover {
	if s.Roster.IsPlayer(s.LocalUser) || len(s.Roster.Players) == 0 {
		if actor == s.LocalUser {
			return &s.Own
		}
		return &s.Enemy
	}
	switch {
	case actor == s.Roster.Players[0]:
		return &s.Own
	case len(s.Roster.Players) > 1 && actor == s.Roster.Players[1]:
		return &s.Enemy
	}
	return nil
}

func wireCell(td protocol.TileData) (hex.Axial, bool) {
	if td.X == nil || td.Y == nil {
		return hex.Axial{}, false
	}
	return hex.Axial{X: *td.X, Y: *td.Y}, true
}

// TileFromWire converts a tile in flight. Origin is ignored; the tile is
// addressed by X/Y when present.
func TileFromWire(td protocol.TileData, local string) board.Tile {
	t := board.Tile{
		Depth: td.Z,
		Kind:  td.Name,
		Owner: td.Owner,
		Local: local != "" && td.Owner == local,
	}
	if c, ok := wireCell(td); ok {
		t.Coord = &c
	}
	return t
}

// TileToWire converts t for sending. A placed tile carries its cell in X/Y.
func TileToWire(t board.Tile) protocol.TileData {
	td := protocol.TileData{Name: t.Kind, Owner: t.Owner, Z: t.Depth}
	if t.Coord != nil {
		x, y := t.Coord.X, t.Coord.Y
		td.X, td.Y = &x, &y
	}
	return td
}

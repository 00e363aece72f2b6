package engine

import (
	"slices"

	"github.com/DoyleJ11/hexhive/internal/board"
	"github.com/DoyleJ11/hexhive/internal/hex"
)

// Hover is what a remote viewer is holding and where. The zero value means
// nobody is hovering.
type Hover struct {
	Pos  *hex.Point
	Tile *board.Tile
}

func (h Hover) Active() bool { return h.Pos != nil }

type Roster struct {
	Players    []string
	Spectators []string
	Active     string
}

func (r Roster) IsPlayer(user string) bool {
	return user != "" && slices.Contains(r.Players, user)
}

// Full reports whether both seats are taken.
func (r Roster) Full() bool { return len(r.Players) >= 2 }

type Outcome struct {
	Winner string
	Loser  string
}

// State is everything the client knows about one game session. It is owned by
// a single goroutine and never shared.
type State struct {
	Room      string
	LocalUser string

	Board     *board.Board
	Selection *board.Tile
	Own       Hover
	Enemy     Hover
	Marked    []hex.Axial
	Inventory board.Inventory
	// Lifted is the cell of a pickup already applied locally whose echo has
	// not arrived. It outlives the selection so a late echo never pops twice.
	Lifted *hex.Axial
	Roster    Roster
	Outcome   *Outcome
}

func NewState(room, user string) *State {
	return &State{
		Room:      room,
		LocalUser: user,
		Board:     board.New(),
		Inventory: board.NewInventory(),
	}
}

// CanInteract reports whether the local viewer may drive the board. Until two
// players are seated anyone may; afterwards spectators may not.
func (s *State) CanInteract() bool {
	if !s.Roster.Full() {
		return true
	}
	return s.Roster.IsPlayer(s.LocalUser)
}

// Reset drops everything tied to the live connection.
func (s *State) Reset() {
	s.Board.Clear()
	s.Selection = nil
	s.Own = Hover{}
	s.Enemy = Hover{}
	s.Marked = nil
	s.Outcome = nil
	s.Lifted = nil
}

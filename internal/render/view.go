package render

import (
	"github.com/DoyleJ11/hexhive/internal/board"
	"github.com/DoyleJ11/hexhive/internal/engine"
	"github.com/DoyleJ11/hexhive/internal/hex"
	"github.com/DoyleJ11/hexhive/internal/interact"
)

// Ghost is a remote viewer's held tile at their cursor.
type Ghost struct {
	Pos  hex.Point
	Tile *board.Tile
}

// View is a self-contained copy of everything one frame needs. It shares no
// memory with the session state it was taken from.
type View struct {
	Layout hex.Layout
	Offset hex.Point
	Width  float64
	Height float64

	Cells     []board.Cell
	Selection *board.Tile
	Cursor    hex.Point
	Marked    []hex.Axial
	Own       *Ghost
	Enemy     *Ghost

	Inventory []Stock
	Status    string
}

// Stock is one inventory entry as shown in the tray.
type Stock struct {
	Kind  string
	Count int
}

// Capture copies the drawable parts of s and m.
func Capture(s *engine.State, m *interact.Machine) View {
	b := m.Bounds()
	v := View{
		Layout: m.Layout(),
		Offset: m.Offset(),
		Width:  b.W,
		Height: b.H,
		Cells:  s.Board.Cells(),
		Cursor: m.Pointer().Current,
		Marked: append([]hex.Axial(nil), s.Marked...),
		Own:    ghostOf(s.Own),
		Enemy:  ghostOf(s.Enemy),
	}
	if s.Selection != nil {
		sel := *s.Selection
		v.Selection = &sel
	}
	for _, kind := range s.Inventory.Kinds() {
		v.Inventory = append(v.Inventory, Stock{Kind: kind, Count: s.Inventory.Count(kind)})
	}
	switch {
	case s.Outcome != nil && s.Outcome.Winner == s.LocalUser:
		v.Status = "You won"
	case s.Outcome != nil && s.Roster.IsPlayer(s.LocalUser):
		v.Status = "You lost"
	case s.Outcome != nil:
		v.Status = s.Outcome.Winner + " won"
	case s.Roster.Active != "":
		v.Status = s.Roster.Active + " to move"
	}
	return v
}

func ghostOf(h engine.Hover) *Ghost {
	if !h.Active() {
		return nil
	}
	g := &Ghost{Pos: *h.Pos}
	if h.Tile != nil {
		t := *h.Tile
		g.Tile = &t
	}
	return g
}

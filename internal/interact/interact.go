// Package interact turns raw pointer and key input into pan gestures and
// tile intents.
package interact

import (
	"github.com/DoyleJ11/hexhive/internal/board"
	"github.com/DoyleJ11/hexhive/internal/engine"
	"github.com/DoyleJ11/hexhive/internal/hex"
)

// ClickThreshold is the largest down-to-up distance, in pixels, that still
// counts as a click rather than a pan.
const ClickThreshold = 10.0

type Phase int

const (
	PhaseIdle Phase = iota
	PhasePressed
	PhaseDragging
	PhaseReleased
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePressed:
		return "pressed"
	case PhaseDragging:
		return "dragging"
	case PhaseReleased:
		return "released"
	}
	return "unknown"
}

type IntentKind string

const (
	IntentPickup IntentKind = "pickup"
	IntentPlace  IntentKind = "place"
	IntentResync IntentKind = "resync"
)

// Intent is a request for the session server. For IntentPlace, Tile is the
// selection as held (Coord is its origin, nil for a fresh tile) and Target is
// the destination.
type Intent struct {
	Kind   IntentKind
	Tile   board.Tile
	Target hex.Axial
}

// Emitter receives intents as they are produced.
type Emitter interface {
	Emit(Intent)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Intent)

func (f EmitterFunc) Emit(i Intent) { f(i) }

// Pointer is the per-gesture pointer record.
type Pointer struct {
	Anchor   *hex.Point // previous move sample while a button is held
	Dragging bool
	Down     *hex.Point
	Current  hex.Point
}

// Bounds is the canvas rectangle in buffer pixels.
type Bounds struct {
	W, H float64
}

func (b Bounds) Contains(p hex.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.W && p.Y < b.H
}

// Machine is the pointer state machine for one session. It reads and writes
// the session's State directly and must be driven from the goroutine that
// owns that State.
type Machine struct {
	state   *engine.State
	layout  hex.Layout
	bounds  Bounds
	out     Emitter
	phase   Phase
	pointer Pointer
	offset  hex.Point
}

func NewMachine(s *engine.State, layout hex.Layout, bounds Bounds, out Emitter) *Machine {
	return &Machine{state: s, layout: layout, bounds: bounds, out: out}
}

func (m *Machine) Phase() Phase          { return m.phase }
func (m *Machine) Pointer() Pointer      { return m.pointer }
func (m *Machine) Offset() hex.Point     { return m.offset }
func (m *Machine) Layout() hex.Layout    { return m.layout }
func (m *Machine) Bounds() Bounds        { return m.bounds }
func (m *Machine) SetBounds(b Bounds)    { m.bounds = b }
func (m *Machine) SetOffset(o hex.Point) { m.offset = o }

// Down starts a gesture when p is on the canvas and the viewer may interact.
func (m *Machine) Down(p hex.Point) {
	m.pointer.Current = p
	if !m.bounds.Contains(p) || !m.state.CanInteract() {
		return
	}
	anchor, down := p, p
	m.pointer.Anchor = &anchor
	m.pointer.Down = &down
	m.pointer.Dragging = false
	m.phase = PhasePressed
}

// Move records the cursor and, while a gesture is in progress, pans by the
// raw delta since the previous sample.
func (m *Machine) Move(p hex.Point, held bool) {
	m.pointer.Current = p
	if !held || m.pointer.Anchor == nil {
		return
	}
	delta := p.Sub(*m.pointer.Anchor)
	m.offset = m.offset.Add(delta)
	anchor := p
	m.pointer.Anchor = &anchor
	m.pointer.Dragging = true
	m.phase = PhaseDragging
}

// Up ends the gesture. A short gesture is a click on the cell under p.
func (m *Machine) Up(p hex.Point) {
	m.pointer.Current = p
	if m.pointer.Down == nil {
		return
	}
	down := *m.pointer.Down
	m.pointer = Pointer{Current: p}
	m.phase = PhaseReleased

	if down.Dist(p) < ClickThreshold {
		m.click(p)
	}
	m.phase = PhaseIdle
}

func (m *Machine) click(p hex.Point) {
	cell := m.layout.Nearest(p, m.offset)
	s := m.state

	if s.Selection == nil {
		top, ok := s.Board.Get(cell)
		if !ok || top.Owner != s.LocalUser {
			return
		}
		picked, _ := s.Board.Remove(cell)
		s.Selection = &picked
		s.Lifted = &cell
		m.out.Emit(Intent{Kind: IntentPickup, Tile: picked, Target: cell})
		return
	}

	// Placement waits for the server to echo it back.
	m.out.Emit(Intent{Kind: IntentPlace, Tile: *s.Selection, Target: cell})
}

// Select takes one tile of kind from the inventory into hand.
func (m *Machine) Select(kind string) bool {
	s := m.state
	if s.Selection != nil || !s.CanInteract() || !s.Inventory.Take(kind) {
		return false
	}
	s.Selection = &board.Tile{Kind: kind, Owner: s.LocalUser, Local: true}
	return true
}

// Escape drops the selection and its target markers. A fresh tile goes back to the inventory; a tile
// lifted from the board is restored by asking for a new snapshot.
func (m *Machine) Escape() {
	s := m.state
	sel := s.Selection
	if sel == nil {
		return
	}
	s.Selection = nil
	s.Marked = nil
	if sel.Placed() {
		m.out.Emit(Intent{Kind: IntentResync, Tile: *sel, Target: *sel.Coord})
		return
	}
	s.Inventory.Return(sel.Kind)
}

// Reset abandons any gesture in progress.
func (m *Machine) Reset() {
	m.pointer = Pointer{Current: m.pointer.Current}
	m.phase = PhaseIdle
}

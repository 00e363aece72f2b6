// Package board holds the stacked-tile model of the hex board.
package board

import (
	"sort"

	"github.com/DoyleJ11/hexhive/internal/hex"
)

// Tile is a game piece. Coord is nil while the tile is in hand. Depth is the
// tile's position in its cell's stack, 0 at the bottom.
type Tile struct {
	Coord *hex.Axial
	Depth int
	Kind  string
	Owner string
	Local bool
}

// At returns a copy of t addressed to c.
func (t Tile) At(c hex.Axial) Tile {
	t.Coord = &c
	return t
}

// Placed reports whether t sits on a cell.
func (t Tile) Placed() bool { return t.Coord != nil }

// Same compares tiles by value, following Coord.
func (t Tile) Same(o Tile) bool {
	if t.Depth != o.Depth || t.Kind != o.Kind || t.Owner != o.Owner || t.Local != o.Local {
		return false
	}
	if t.Coord == nil || o.Coord == nil {
		return t.Coord == nil && o.Coord == nil
	}
	return *t.Coord == *o.Coord
}

// Cell is one occupied cell and its stack, bottom to top.
type Cell struct {
	Coord hex.Axial
	Stack []Tile
}

// Board maps row -> column -> stack. Only the top of a stack is ever popped.
type Board struct {
	rows map[int]map[int][]Tile
}

func New() *Board {
	return &Board{rows: make(map[int]map[int][]Tile)}
}

// Get returns the top tile at c.
func (b *Board) Get(c hex.Axial) (Tile, bool) {
	stack := b.rows[c.Y][c.X]
	if len(stack) == 0 {
		return Tile{}, false
	}
	return stack[len(stack)-1], true
}

// Stack returns a copy of the stack at c, bottom to top.
func (b *Board) Stack(c hex.Axial) []Tile {
	stack := b.rows[c.Y][c.X]
	if len(stack) == 0 {
		return nil
	}
	return append([]Tile(nil), stack...)
}

// Put pushes t onto the stack at c and returns it as stored.
func (b *Board) Put(t Tile, c hex.Axial) Tile {
	row, ok := b.rows[c.Y]
	if !ok {
		row = make(map[int][]Tile)
		b.rows[c.Y] = row
	}
	t = t.At(c)
	t.Depth = len(row[c.X])
	row[c.X] = append(row[c.X], t)
	return t
}

// Remove pops the top tile at c. An empty cell is a no-op, since late or
// duplicated events may target it.
func (b *Board) Remove(c hex.Axial) (Tile, bool) {
	row := b.rows[c.Y]
	stack := row[c.X]
	if len(stack) == 0 {
		return Tile{}, false
	}
	top := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(row, c.X)
		if len(row) == 0 {
			delete(b.rows, c.Y)
		}
	} else {
		row[c.X] = stack[:len(stack)-1]
	}
	return top, true
}

// ReplaceAll discards every stack and rebuilds the board from s.
func (b *Board) ReplaceAll(s Snapshot) {
	rows := make(map[int]map[int][]Tile, len(s.Cells))
	for _, cell := range s.Cells {
		if len(cell.Stack) == 0 {
			continue
		}
		row, ok := rows[cell.Coord.Y]
		if !ok {
			row = make(map[int][]Tile)
			rows[cell.Coord.Y] = row
		}
		stack := make([]Tile, 0, len(cell.Stack))
		for i, t := range cell.Stack {
			t = t.At(cell.Coord)
			t.Depth = i
			stack = append(stack, t)
		}
		row[cell.Coord.X] = stack
	}
	b.rows = rows
}

// Clear removes every tile.
func (b *Board) Clear() {
	b.rows = make(map[int]map[int][]Tile)
}

// Cells lists occupied cells ordered by row then column.
func (b *Board) Cells() []Cell {
	cells := make([]Cell, 0, b.Len())
	for y, row := range b.rows {
		for x, stack := range row {
			cells = append(cells, Cell{
				Coord: hex.Axial{X: x, Y: y},
				Stack: append([]Tile(nil), stack...),
			})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Coord.Y != cells[j].Coord.Y {
			return cells[i].Coord.Y < cells[j].Coord.Y
		}
		return cells[i].Coord.X < cells[j].Coord.X
	})
	return cells
}

// Len is the number of occupied cells.
func (b *Board) Len() int {
	n := 0
	for _, row := range b.rows {
		n += len(row)
	}
	return n
}

// Tiles is the number of tiles on the board.
func (b *Board) Tiles() int {
	n := 0
	for _, row := range b.rows {
		for _, stack := range row {
			n += len(stack)
		}
	}
	return n
}

// Occupied reports whether any tile sits at c.
func (b *Board) Occupied(c hex.Axial) bool {
	return len(b.rows[c.Y][c.X]) > 0
}

func (b *Board) Clone() *Board {
	out := New()
	for y, row := range b.rows {
		r := make(map[int][]Tile, len(row))
		for x, stack := range row {
			r[x] = append([]Tile(nil), stack...)
		}
		out.rows[y] = r
	}
	return out
}

func (b *Board) Equal(o *Board) bool {
	a, c := b.Cells(), o.Cells()
	if len(a) != len(c) {
		return false
	}
	for i := range a {
		if a[i].Coord != c[i].Coord || len(a[i].Stack) != len(c[i].Stack) {
			return false
		}
		for j := range a[i].Stack {
			if !a[i].Stack[j].Same(c[i].Stack[j]) {
				return false
			}
		}
	}
	return true
}

// Frontier returns the empty cells touching at least one occupied cell, in
// row-then-column order. An empty board yields the origin.
func (b *Board) Frontier() []hex.Axial {
	if b.Len() == 0 {
		return []hex.Axial{{}}
	}
	seen := make(map[hex.Axial]bool)
	var out []hex.Axial
	for _, cell := range b.Cells() {
		for _, n := range hex.Neighbors(cell.Coord) {
			if seen[n] || b.Occupied(n) {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Snapshot is the authoritative content of a whole board.
type Snapshot struct {
	Cells []Cell
}

// Snapshot captures the board in the shape ReplaceAll consumes.
func (b *Board) Snapshot() Snapshot {
	return Snapshot{Cells: b.Cells()}
}

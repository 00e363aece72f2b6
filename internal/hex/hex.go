// Package hex converts between screen points and offset axial hex cells.
//
// The grid is pointy-top with odd rows shifted right by half a cell. Every
// formula in this package (forward transform, nearest lookup, neighbors,
// corners) uses that one convention.
package hex

import "math"

const sqrt3 = 1.7320508075688772

// Axial is a cell address. X is the column, Y the row.
type Axial struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Point is a position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Dist is the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Layout holds the grid parameters shared by drawing and hit-testing.
type Layout struct {
	Size float64 // center to corner, in pixels
}

func (l Layout) XIncrement() float64 { return l.Size * sqrt3 / 2 }
func (l Layout) YIncrement() float64 { return l.Size * 1.5 }

func rowParity(y int) int { return y & 1 }

// ToScreen returns the pixel center of c under the pan offset.
func (l Layout) ToScreen(c Axial, offset Point) Point {
	xInc := l.XIncrement()
	xBump := float64(rowParity(c.Y)) * xInc
	return Point{
		X: float64(c.X)*2*xInc + xBump + offset.X,
		Y: float64(c.Y)*l.YIncrement() + offset.Y,
	}
}

// Nearest returns the cell whose center is closest to p.
//
// A rounded inverse picks a starting cell, then that cell and its six
// neighbors are compared under ToScreen. Ties keep the first candidate in
// (self, Neighbors...) order.
func (l Layout) Nearest(p Point, offset Point) Axial {
	xInc := l.XIncrement()
	local := p.Sub(offset)

	y := int(math.Round(local.Y / l.YIncrement()))
	x := int(math.Round((local.X - float64(rowParity(y))*xInc) / (2 * xInc)))
	guess := Axial{X: x, Y: y}

	best := guess
	bestDist := l.ToScreen(guess, offset).Dist(p)
	for _, n := range Neighbors(guess) {
		if d := l.ToScreen(n, offset).Dist(p); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// Neighbors returns the six adjacent cells: left, right, up, down, then the
// diagonal above and below whose column shift depends on row parity.
func Neighbors(c Axial) [6]Axial {
	bump := rowParity(c.Y)*2 - 1
	return [6]Axial{
		{X: c.X - 1, Y: c.Y},
		{X: c.X + 1, Y: c.Y},
		{X: c.X, Y: c.Y - 1},
		{X: c.X, Y: c.Y + 1},
		{X: c.X + bump, Y: c.Y - 1},
		{X: c.X + bump, Y: c.Y + 1},
	}
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b Axial) bool {
	for _, n := range Neighbors(a) {
		if n == b {
			return true
		}
	}
	return false
}

// Corners returns the six corners of the hex centered on center, clockwise
// from the top.
func (l Layout) Corners(center Point) [6]Point {
	xInc := l.XIncrement()
	half := l.Size / 2
	return [6]Point{
		{X: center.X, Y: center.Y - l.Size},
		{X: center.X + xInc, Y: center.Y - half},
		{X: center.X + xInc, Y: center.Y + half},
		{X: center.X, Y: center.Y + l.Size},
		{X: center.X - xInc, Y: center.Y + half},
		{X: center.X - xInc, Y: center.Y - half},
	}
}

// Scale maps pointer coordinates from the displayed canvas size to the
// backing buffer when the two differ.
type Scale struct {
	DisplayW, DisplayH float64
	BufferW, BufferH   float64
}

func (s Scale) ToBuffer(p Point) Point {
	if s.DisplayW <= 0 || s.DisplayH <= 0 || s.BufferW <= 0 || s.BufferH <= 0 {
		return p
	}
	return Point{
		X: p.X * s.BufferW / s.DisplayW,
		Y: p.Y * s.BufferH / s.DisplayH,
	}
}

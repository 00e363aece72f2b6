// Package render paints a View: grid, tile stacks, hints, the held tile and
// remote hover ghosts. Drawing never changes game state.
package render

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DoyleJ11/hexhive/internal/board"
	"github.com/DoyleJ11/hexhive/internal/hex"
)

// Painter is the drawing surface. Implementations clip to their own bounds.
type Painter interface {
	Fill(c color.Color)
	Polygon(pts []hex.Point, fill color.Color)
	Polyline(pts []hex.Point, width float64, c color.Color)
	Image(img image.Image, center hex.Point, size float64)
	Text(s string, center hex.Point, c color.Color)
}

type Theme struct {
	Background color.Color
	Grid       color.Color
	LocalTop   color.Color
	LocalSide  color.Color
	RemoteTop  color.Color
	RemoteSide color.Color
	Outline    color.Color
	LocalText  color.Color
	RemoteText color.Color
	Marker     color.Color
	GhostAlpha uint8
}

var DefaultTheme = Theme{
	Background: color.NRGBA{R: 238, G: 232, B: 216, A: 255},
	Grid:       color.NRGBA{R: 196, G: 188, B: 170, A: 255},
	LocalTop:   color.NRGBA{R: 250, G: 246, B: 236, A: 255},
	LocalSide:  color.NRGBA{R: 196, G: 186, B: 160, A: 255},
	RemoteTop:  color.NRGBA{R: 52, G: 50, B: 58, A: 255},
	RemoteSide: color.NRGBA{R: 22, G: 20, B: 26, A: 255},
	Outline:    color.NRGBA{R: 90, G: 80, B: 70, A: 255},
	LocalText:  color.NRGBA{R: 40, G: 36, B: 30, A: 255},
	RemoteText: color.NRGBA{R: 236, G: 232, B: 220, A: 255},
	Marker:     color.NRGBA{R: 72, G: 160, B: 90, A: 180},
	GhostAlpha: 120,
}

// Renderer draws frames. The zero value is not usable; use New.
type Renderer struct {
	Assets     *Assets
	TileHeight float64
	Theme      Theme

	title cases.Caser
}

func New(assets *Assets) *Renderer {
	if assets == nil {
		assets = NewAssets()
	}
	return &Renderer{
		Assets:     assets,
		TileHeight: 6,
		Theme:      DefaultTheme,
		title:      cases.Title(language.English),
	}
}

// Draw paints one frame of v onto p.
func (r *Renderer) Draw(p Painter, v View) {
	p.Fill(r.Theme.Background)
	r.drawGrid(p, v)

	for _, cell := range v.Cells {
		for _, t := range cell.Stack {
			center := v.Layout.ToScreen(cell.Coord, v.Offset)
			r.drawTile(p, v.Layout, center, t, 255)
		}
	}

	for _, c := range v.Marked {
		center := v.Layout.ToScreen(c, v.Offset)
		marker := hex.Layout{Size: v.Layout.Size * 0.35}.Corners(center)
		p.Polygon(marker[:], r.Theme.Marker)
	}

	if v.Selection != nil {
		sel := *v.Selection
		sel.Depth = 0
		r.drawTile(p, v.Layout, v.Cursor, sel, 255)
	}

	for _, g := range []*Ghost{v.Own, v.Enemy} {
		if g == nil || g.Tile == nil {
			continue
		}
		ghost := *g.Tile
		ghost.Depth = 0
		r.drawTile(p, v.Layout, g.Pos, ghost, r.Theme.GhostAlpha)
	}

	r.drawTray(p, v)
}

// visibleRange returns the rows and columns that can touch the canvas, with a
// margin of two cells on every side.
func visibleRange(v View) (minRow, maxRow, minCol, maxCol int) {
	colW := 2 * v.Layout.XIncrement()
	rowH := v.Layout.YIncrement()
	minRow = int(math.Floor(-v.Offset.Y/rowH)) - 2
	maxRow = int(math.Ceil((v.Height-v.Offset.Y)/rowH)) + 2
	minCol = int(math.Floor(-v.Offset.X/colW)) - 2
	maxCol = int(math.Ceil((v.Width-v.Offset.X)/colW)) + 2
	return
}

// drawGrid strokes the grid in two passes built from the same corners the
// tiles use: a zigzag along the top edges of each row, then the vertical
// left edges. Each row's bottom edges are the next row's top edges.
func (r *Renderer) drawGrid(p Painter, v View) {
	if v.Layout.Size <= 0 {
		return
	}
	minRow, maxRow, minCol, maxCol := visibleRange(v)

	for y := minRow; y <= maxRow; y++ {
		zigzag := make([]hex.Point, 0, 2*(maxCol-minCol+1)+1)
		for x := minCol; x <= maxCol; x++ {
			c := v.Layout.Corners(v.Layout.ToScreen(hex.Axial{X: x, Y: y}, v.Offset))
			zigzag = append(zigzag, c[5], c[0])
		}
		last := v.Layout.Corners(v.Layout.ToScreen(hex.Axial{X: maxCol, Y: y}, v.Offset))
		zigzag = append(zigzag, last[1])
		p.Polyline(zigzag, 1, r.Theme.Grid)
	}

	for y := minRow; y <= maxRow; y++ {
		for x := minCol; x <= maxCol+1; x++ {
			c := v.Layout.Corners(v.Layout.ToScreen(hex.Axial{X: x, Y: y}, v.Offset))
			p.Polyline([]hex.Point{c[5], c[4]}, 1, r.Theme.Grid)
		}
	}
}

// drawTile paints t as a hexagonal prism lifted by its stack depth.
func (r *Renderer) drawTile(p Painter, l hex.Layout, center hex.Point, t board.Tile, alpha uint8) {
	center.Y -= float64(t.Depth) * r.TileHeight

	top, side, ink := r.Theme.RemoteTop, r.Theme.RemoteSide, r.Theme.RemoteText
	if t.Local {
		top, side, ink = r.Theme.LocalTop, r.Theme.LocalSide, r.Theme.LocalText
	}

	face := hex.Layout{Size: l.Size * 0.92}.Corners(center)
	base := face
	for i := range base {
		base[i].Y += r.TileHeight
	}
	// Side band: lower half of the top face joined to the same edge of the base.
	band := []hex.Point{face[1], face[2], face[3], face[4], base[4], base[3], base[2], base[1]}
	p.Polygon(band, withAlpha(side, alpha))
	p.Polygon(face[:], withAlpha(top, alpha))
	p.Polyline(append(face[:], face[0]), 1, withAlpha(r.Theme.Outline, alpha))

	if img := r.Assets.Get(t.Kind); img != nil {
		p.Image(img, center, l.Size)
		return
	}
	p.Text(r.title.String(t.Kind), center, withAlpha(ink, alpha))
}

// drawTray lists the local inventory along the bottom edge with the digit
// key that selects each kind.
func (r *Renderer) drawTray(p Painter, v View) {
	if len(v.Inventory) == 0 && v.Status == "" {
		return
	}
	y := v.Height - 12
	x := 60.0
	for i, s := range v.Inventory {
		label := strconv.Itoa(i+1) + " " + r.title.String(s.Kind) + " x" + strconv.Itoa(s.Count)
		p.Text(label, hex.Point{X: x, Y: y}, r.Theme.LocalText)
		x += 110
	}
	if v.Status != "" {
		p.Text(v.Status, hex.Point{X: v.Width / 2, Y: 14}, r.Theme.LocalText)
	}
}

func withAlpha(c color.Color, a uint8) color.Color {
	if a == 255 {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(uint16(n.A) * uint16(a) / 255)
	return n
}

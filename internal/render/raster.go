package render

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/DoyleJ11/hexhive/internal/hex"
)

// Raster is a Painter over an in-memory RGBA image, used for headless frames
// and tests.
type Raster struct {
	Dst  *image.RGBA
	rast *vector.Rasterizer
}

func NewRaster(w, h int) *Raster {
	return &Raster{
		Dst:  image.NewRGBA(image.Rect(0, 0, w, h)),
		rast: vector.NewRasterizer(w, h),
	}
}

func (r *Raster) Fill(c color.Color) {
	xdraw.Draw(r.Dst, r.Dst.Bounds(), image.NewUniform(c), image.Point{}, xdraw.Src)
}

func (r *Raster) Polygon(pts []hex.Point, fill color.Color) {
	if len(pts) < 3 {
		return
	}
	b := r.Dst.Bounds()
	r.rast.Reset(b.Dx(), b.Dy())
	r.rast.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		r.rast.LineTo(float32(p.X), float32(p.Y))
	}
	r.rast.ClosePath()
	r.rast.Draw(r.Dst, b, image.NewUniform(fill), image.Point{})
}

// Polyline strokes each segment as a quad of the given width.
func (r *Raster) Polyline(pts []hex.Point, width float64, c color.Color) {
	if len(pts) < 2 {
		return
	}
	b := r.Dst.Bounds()
	r.rast.Reset(b.Dx(), b.Dy())
	half := width / 2
	for i := 1; i < len(pts); i++ {
		a, z := pts[i-1], pts[i]
		dx, dy := z.X-a.X, z.Y-a.Y
		n := math.Hypot(dx, dy)
		if n == 0 {
			continue
		}
		nx, ny := -dy/n*half, dx/n*half
		r.rast.MoveTo(float32(a.X+nx), float32(a.Y+ny))
		r.rast.LineTo(float32(z.X+nx), float32(z.Y+ny))
		r.rast.LineTo(float32(z.X-nx), float32(z.Y-ny))
		r.rast.LineTo(float32(a.X-nx), float32(a.Y-ny))
		r.rast.ClosePath()
	}
	r.rast.Draw(r.Dst, b, image.NewUniform(c), image.Point{})
}

func (r *Raster) Image(img image.Image, center hex.Point, size float64) {
	half := int(size / 2)
	cx, cy := int(center.X), int(center.Y)
	dst := image.Rect(cx-half, cy-half, cx+half, cy+half)
	xdraw.ApproxBiLinear.Scale(r.Dst, dst, img, img.Bounds(), xdraw.Over, nil)
}

func (r *Raster) Text(s string, center hex.Point, c color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: r.Dst, Src: image.NewUniform(c), Face: face}
	w := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: fixed.I(int(center.X)) - w/2,
		Y: fixed.I(int(center.Y) + face.Ascent/2),
	}
	d.DrawString(s)
}

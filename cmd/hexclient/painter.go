package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/DoyleJ11/hexhive/internal/hex"
)

var whiteSubImage = func() *ebiten.Image {
	img := ebiten.NewImage(3, 3)
	img.Fill(color.White)
	return img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
}()

// painter draws render primitives onto an ebiten screen.
type painter struct {
	dst    *ebiten.Image
	images map[image.Image]*ebiten.Image
}

func (p *painter) Fill(c color.Color) { p.dst.Fill(c) }

func (p *painter) Polygon(pts []hex.Point, fill color.Color) {
	if len(pts) < 3 {
		return
	}
	var path vector.Path
	path.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, pt := range pts[1:] {
		path.LineTo(float32(pt.X), float32(pt.Y))
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	n := color.NRGBAModel.Convert(fill).(color.NRGBA)
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(n.R) / 255
		vs[i].ColorG = float32(n.G) / 255
		vs[i].ColorB = float32(n.B) / 255
		vs[i].ColorA = float32(n.A) / 255
	}
	p.dst.DrawTriangles(vs, is, whiteSubImage, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

func (p *painter) Polyline(pts []hex.Point, width float64, c color.Color) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		vector.StrokeLine(p.dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(width), c, true)
	}
}

func (p *painter) Image(img image.Image, center hex.Point, size float64) {
	eimg, ok := p.images[img]
	if !ok {
		eimg = ebiten.NewImageFromImage(img)
		p.images[img] = eimg
	}
	b := eimg.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size/float64(b.Dx()), size/float64(b.Dy()))
	op.GeoM.Translate(center.X-size/2, center.Y-size/2)
	op.Filter = ebiten.FilterLinear
	p.dst.DrawImage(eimg, op)
}

func (p *painter) Text(s string, center hex.Point, c color.Color) {
	face := basicfont.Face7x13
	b := text.BoundString(face, s)
	x := int(center.X) - b.Dx()/2
	y := int(center.Y) + face.Metrics().Ascent.Ceil()/2
	text.Draw(p.dst, s, face, x, y, c)
}

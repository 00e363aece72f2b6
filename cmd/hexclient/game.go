package main

import (
	"image"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/DoyleJ11/hexhive/internal/hex"
	"github.com/DoyleJ11/hexhive/internal/render"
	"github.com/DoyleJ11/hexhive/internal/session"
)

var digitKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// game adapts ebiten's loop to a session. Input is forwarded to the session
// goroutine; frames come back through Present.
type game struct {
	sess     *session.Session
	renderer *render.Renderer
	painter  *painter
	frame    atomic.Pointer[render.View]
	quit     atomic.Bool

	cursor hex.Point
	w, h   int
}

func newGame(r *render.Renderer, w, h int) *game {
	return &game{
		renderer: r,
		painter:  &painter{images: make(map[image.Image]*ebiten.Image)},
		w:        w,
		h:        h,
	}
}

// Present is called from the session goroutine.
func (g *game) Present(v render.View) { g.frame.Store(&v) }

func (g *game) send(m session.Msg) {
	select {
	case g.sess.Inbox() <- m:
	default:
		// Input is best effort; the next sample supersedes it.
	}
}

func (g *game) Update() error {
	if g.quit.Load() {
		return ebiten.Termination
	}

	x, y := ebiten.CursorPosition()
	p := hex.Point{X: float64(x), Y: float64(y)}
	held := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.send(session.PointerDown{P: p})
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.send(session.PointerUp{P: p})
	case p != g.cursor:
		g.send(session.PointerMove{P: p, Held: held})
	}
	g.cursor = p

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.send(session.Escape{})
	}
	if v := g.frame.Load(); v != nil {
		for i, k := range digitKeys {
			if i < len(v.Inventory) && inpututil.IsKeyJustPressed(k) {
				g.send(session.SelectKind{Kind: v.Inventory[i].Kind})
			}
		}
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	v := g.frame.Load()
	if v == nil {
		screen.Fill(g.renderer.Theme.Background)
		return
	}
	g.painter.dst = screen
	g.renderer.Draw(g.painter, *v)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.w || outsideHeight != g.h {
		g.w, g.h = outsideWidth, outsideHeight
		if g.sess != nil {
			g.send(session.Resize{W: float64(g.w), H: float64(g.h)})
		}
	}
	return g.w, g.h
}

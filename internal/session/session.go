// Package session runs one game session: a single goroutine that owns the
// client state and serializes transport events, pointer input and periodic
// ticks.
package session

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hexhive/internal/engine"
	"github.com/DoyleJ11/hexhive/internal/hex"
	"github.com/DoyleJ11/hexhive/internal/interact"
	"github.com/DoyleJ11/hexhive/internal/render"
	"github.com/DoyleJ11/hexhive/pkg/protocol"
)

// Transport is the bidirectional event channel to the session server. Send
// must not block. Inbound is closed when the connection ends.
type Transport interface {
	Send(protocol.Envelope) error
	Inbound() <-chan protocol.Envelope
	Close() error
}

// Presenter receives one frame per render tick. It is called from the session
// goroutine and must return quickly.
type Presenter interface {
	Present(render.View)
}

type PresenterFunc func(render.View)

func (f PresenterFunc) Present(v render.View) { f(v) }

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func NewStdTicker(d time.Duration) Ticker { return stdTicker{t: time.NewTicker(d)} }

type Options struct {
	Room     string
	Username string
	Layout   hex.Layout
	Bounds   interact.Bounds

	FrameInterval time.Duration
	HoverInterval time.Duration
	PollInterval  time.Duration // zero disables board polling

	NewTicker TickerFactory
}

func (o *Options) defaults() {
	if o.FrameInterval <= 0 {
		o.FrameInterval = time.Second / 60
	}
	if o.HoverInterval <= 0 {
		o.HoverInterval = 100 * time.Millisecond
	}
	if o.Layout.Size <= 0 {
		o.Layout.Size = 50
	}
	if o.NewTicker == nil {
		o.NewTicker = NewStdTicker
	}
}

type Msg interface{ isSessionMsg() }

type PointerDown struct{ P hex.Point }

type PointerMove struct {
	P    hex.Point
	Held bool
}

type PointerUp struct{ P hex.Point }

type Escape struct{}

type SelectKind struct{ Kind string }

type Resize struct{ W, H float64 }

type GetView struct{ Reply chan render.View }

// Inspect runs Fn on the session goroutine. Test-only.
type Inspect struct {
	Fn func(*engine.State, *interact.Machine)
}

type Disconnect struct{}

func (PointerDown) isSessionMsg() {}
func (PointerMove) isSessionMsg() {}
func (PointerUp) isSessionMsg()   {}
func (Escape) isSessionMsg()      {}
func (SelectKind) isSessionMsg()  {}
func (Resize) isSessionMsg()      {}
func (GetView) isSessionMsg()     {}
func (Inspect) isSessionMsg()     {}
func (Disconnect) isSessionMsg()  {}

type Session struct {
	inbox     chan Msg
	opts      Options
	state     *engine.State
	machine   *interact.Machine
	transport Transport
	presenter Presenter
	log       *zap.Logger

	connected bool
	hovering  bool
	closeErr  error

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New starts a session over an already connected transport. It joins the
// room and requests the board immediately.
func New(parent context.Context, opts Options, t Transport, p Presenter, log *zap.Logger) *Session {
	opts.defaults()
	if log == nil {
		log = zap.NewNop()
	}
	if p == nil {
		p = PresenterFunc(func(render.View) {})
	}
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		inbox:     make(chan Msg, 64),
		opts:      opts,
		state:     engine.NewState(opts.Room, opts.Username),
		transport: t,
		presenter: p,
		log:       log.Named("session").With(zap.String("room", opts.Room), zap.String("user", opts.Username)),
		connected: true,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.machine = interact.NewMachine(s.state, opts.Layout, opts.Bounds, interact.EmitterFunc(s.emit))

	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close leaves the room, stops every periodic task and closes the transport.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.cancel()
	<-s.done
	return s.closeErr
}

func (s *Session) loop() {
	defer close(s.done)

	frame := s.opts.NewTicker(s.opts.FrameInterval)
	defer frame.Stop()
	hover := s.opts.NewTicker(s.opts.HoverInterval)
	defer hover.Stop()

	var pollC <-chan time.Time
	if s.opts.PollInterval > 0 {
		poll := s.opts.NewTicker(s.opts.PollInterval)
		defer poll.Stop()
		pollC = poll.C()
	}

	s.send(protocol.MustNew(protocol.EvtJoin, protocol.Room{Room: s.opts.Room}))
	s.send(protocol.MustNew(protocol.EvtGetBoard, protocol.Room{Room: s.opts.Room}))
	s.log.Info("session started")

	inbound := s.transport.Inbound()
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case env, ok := <-inbound:
			if !ok {
				s.log.Warn("connection lost")
				s.connected = false
				s.shutdown()
				return
			}
			s.apply(env)

		case m := <-s.inbox:
			switch msg := m.(type) {
			case PointerDown:
				s.machine.Down(msg.P)
			case PointerMove:
				s.machine.Move(msg.P, msg.Held)
			case PointerUp:
				s.machine.Up(msg.P)
			case Escape:
				s.machine.Escape()
			case SelectKind:
				if !s.machine.Select(msg.Kind) {
					s.log.Debug("select refused", zap.String("kind", msg.Kind))
				}
			case Resize:
				s.machine.SetBounds(interact.Bounds{W: msg.W, H: msg.H})
			case GetView:
				msg.Reply <- s.view()
			case Inspect:
				msg.Fn(s.state, s.machine)
			case Disconnect:
				s.shutdown()
				return
			}

		case <-frame.C():
			s.presenter.Present(s.view())

		case <-hover.C():
			s.broadcastHover()

		case <-pollC:
			s.send(protocol.MustNew(protocol.EvtGetBoard, protocol.Room{Room: s.opts.Room}))
		}
	}
}

func (s *Session) view() render.View {
	v := render.Capture(s.state, s.machine)
	// Hover positions travel in board space; draw them under our own pan.
	for _, g := range []*render.Ghost{v.Own, v.Enemy} {
		if g != nil {
			g.Pos = g.Pos.Add(v.Offset)
		}
	}
	return v
}

func (s *Session) apply(env protocol.Envelope) {
	out, err := engine.Apply(s.state, env)
	if err != nil {
		s.log.Debug("event dropped", zap.String("event", env.Event), zap.Error(err))
		return
	}
	for _, o := range out {
		if o.Event == protocol.EvtMouseHover {
			s.hovering = false
		}
		s.send(o)
	}
}

// emit turns an intent from the pointer machine into an outbound event.
func (s *Session) emit(in interact.Intent) {
	switch in.Kind {
	case interact.IntentPickup:
		s.send(protocol.MustNew(protocol.EvtPickupTile, protocol.TileAction{
			Room:     s.opts.Room,
			Username: s.opts.Username,
			Data:     engine.TileToWire(in.Tile),
		}))

	case interact.IntentPlace:
		if !s.connected {
			s.log.Info("placement dropped while disconnected")
			return
		}
		data := engine.TileToWire(in.Tile.At(in.Target))
		if in.Tile.Coord != nil {
			data.Origin = &protocol.Cell{X: in.Tile.Coord.X, Y: in.Tile.Coord.Y}
		}
		s.send(protocol.MustNew(protocol.EvtPlaceTile, protocol.TileAction{
			Room:     s.opts.Room,
			Username: s.opts.Username,
			Data:     data,
		}))

	case interact.IntentResync:
		s.send(protocol.MustNew(protocol.EvtGetBoard, protocol.Room{Room: s.opts.Room}))
	}
}

// broadcastHover sends the held tile and cursor while something is selected,
// and a single stop once the selection is gone.
func (s *Session) broadcastHover() {
	msg := protocol.Hover{Room: s.opts.Room, Username: s.opts.Username}
	sel := s.state.Selection
	switch {
	case sel != nil:
		pos := s.machine.Pointer().Current.Sub(s.machine.Offset())
		td := engine.TileToWire(*sel)
		msg.Data = &protocol.HoverData{Pos: protocol.Point{X: pos.X, Y: pos.Y}, Tile: &td}
		s.hovering = true
	case s.hovering:
		s.hovering = false
	default:
		return
	}
	s.send(protocol.MustNew(protocol.EvtMouseHover, msg))
}

// send is fire-and-forget; failures are logged and otherwise ignored.
func (s *Session) send(env protocol.Envelope) {
	if !s.connected {
		return
	}
	if err := s.transport.Send(env); err != nil {
		s.log.Warn("send failed", zap.String("event", env.Event), zap.Error(err))
	}
}

func (s *Session) shutdown() {
	var err error
	if s.connected {
		err = s.transport.Send(protocol.MustNew(protocol.EvtLeave, protocol.Leave{
			Room:     s.opts.Room,
			Username: s.opts.Username,
		}))
		s.connected = false
	}
	s.state.Reset()
	s.machine.Reset()
	s.closeErr = multierr.Append(err, s.transport.Close())
	s.cancel()
	s.log.Info("session closed")
}

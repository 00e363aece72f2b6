// Package transport is the client side of the session connection: a
// websocket carrying protocol envelopes in both directions.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hexhive/pkg/protocol"
)

var (
	ErrClosed    = errors.New("transport: closed")
	ErrQueueFull = errors.New("transport: send queue full")
)

const (
	queueSize    = 64
	writeTimeout = 3 * time.Second
)

// Conn implements the session transport over a gorilla websocket. Send never
// blocks; a single writer goroutine drains the queue.
type Conn struct {
	conn *websocket.Conn
	in   chan protocol.Envelope
	out  chan protocol.Envelope
	log  *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the session server at rawURL as user.
func Dial(ctx context.Context, rawURL, user string, log *zap.Logger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse url: %w", err)
	}
	q := u.Query()
	q.Set("user", user)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	c, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, fmt.Errorf("transport: dial %s: %s: %s", u.Redacted(), resp.Status, body)
		}
		return nil, fmt.Errorf("transport: dial %s: %w", u.Redacted(), err)
	}
	log.Info("connected", zap.String("url", u.Redacted()))
	return newConn(c, log), nil
}

func newConn(c *websocket.Conn, log *zap.Logger) *Conn {
	n := &Conn{
		conn: c,
		in:   make(chan protocol.Envelope, queueSize),
		out:  make(chan protocol.Envelope, queueSize),
		log:  log.Named("transport"),
		done: make(chan struct{}),
	}
	n.wg.Add(1)
	go n.writer()
	go n.reader()
	return n
}

// Inbound is closed when the connection ends for any reason.
func (n *Conn) Inbound() <-chan protocol.Envelope { return n.in }

func (n *Conn) Send(env protocol.Envelope) error {
	select {
	case <-n.done:
		return ErrClosed
	default:
	}
	select {
	case n.out <- env:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close flushes queued envelopes, sends a close frame and tears the socket
// down. Later calls return the first result.
func (n *Conn) Close() error {
	n.closeOnce.Do(func() {
		n.stop()
		n.wg.Wait()
		n.closeErr = n.conn.Close()
	})
	return n.closeErr
}

func (n *Conn) stop() { n.stopOnce.Do(func() { close(n.done) }) }

func (n *Conn) reader() {
	defer close(n.in)
	for {
		_, data, err := n.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				n.log.Debug("read ended", zap.Error(err))
			}
			n.stop()
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			n.log.Debug("unreadable frame", zap.Int("bytes", len(data)), zap.Error(err))
			continue
		}
		select {
		case n.in <- env:
		case <-n.done:
			return
		}
	}
}

func (n *Conn) writer() {
	defer n.wg.Done()
	for {
		select {
		case env := <-n.out:
			if err := n.write(env); err != nil {
				n.log.Warn("write failed", zap.String("event", env.Event), zap.Error(err))
				n.stop()
				// Unblock the reader so Inbound closes.
				_ = n.conn.UnderlyingConn().Close()
				return
			}
		case <-n.done:
			n.flush()
			deadline := time.Now().Add(time.Second)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
			_ = n.conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return
		}
	}
}

func (n *Conn) flush() {
	for {
		select {
		case env := <-n.out:
			if err := n.write(env); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (n *Conn) write(env protocol.Envelope) error {
	_ = n.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return n.conn.WriteJSON(env)
}

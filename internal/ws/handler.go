package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hexhive/internal/hub"
	"github.com/DoyleJ11/hexhive/internal/room"
	"github.com/DoyleJ11/hexhive/pkg/protocol"
)

const writeTimeout = 3 * time.Second

// Handler upgrades a request to a game connection. The user query parameter
// names the connection; a join event attaches it to a room.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.URL.Query().Get("user"))
		if user == "" {
			http.Error(w, "missing user", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		clog := log.With(zap.String("client", clientID), zap.String("user", user))
		out := make(chan protocol.Envelope, 64)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine
		go func() {
			defer cancel()
			for {
				select {
				case env, ok := <-out:
					if !ok {
						// The room dropped us.
						_ = conn.Close(websocket.StatusPolicyViolation, "too slow")
						return
					}
					payload, err := json.Marshal(env)
					if err != nil {
						continue
					}
					wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
					err = conn.Write(wctx, websocket.MessageText, payload)
					wcancel()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		var current *room.Room
		defer func() {
			if current != nil {
				current.Inbox() <- room.Leave{ClientID: clientID}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			var env protocol.Envelope
			if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
				clog.Debug("bad frame", zap.Error(err))
				continue
			}

			switch env.Event {
			case protocol.EvtJoin:
				var msg protocol.Room
				if err := env.Decode(&msg); err != nil || msg.Room == "" {
					clog.Debug("bad join", zap.Error(err))
					continue
				}
				if current != nil && current.Code() == msg.Room {
					current.Inbox() <- room.Join{ClientID: clientID, User: user, Outbox: out}
					continue
				}
				if current != nil {
					current.Inbox() <- room.Leave{ClientID: clientID}
				}
				rm := ensureRoom(ctx, h, msg.Room)
				if rm == nil {
					return
				}
				current = rm
				rm.Inbox() <- room.Join{ClientID: clientID, User: user, Outbox: out}

			case protocol.EvtLeave:
				if current != nil {
					current.Inbox() <- room.Leave{ClientID: clientID}
					current = nil
				}

			default:
				if current == nil {
					clog.Debug("event before join", zap.String("event", env.Event))
					continue
				}
				current.Inbox() <- room.FromClient{ClientID: clientID, Env: env}
			}
		}
	}
}

func ensureRoom(ctx context.Context, h *hub.Hub, code string) *room.Room {
	reply := make(chan *room.Room, 1)
	select {
	case h.Inbox() <- hub.EnsureRoom{Code: code, Reply: reply}:
	case <-ctx.Done():
		return nil
	}
	select {
	case rm := <-reply:
		return rm
	case <-ctx.Done():
		return nil
	}
}

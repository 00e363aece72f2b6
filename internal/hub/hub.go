// Package hub owns the set of live rooms on the dev server.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hexhive/internal/room"
)

type HubMsg interface{ isHubMsg() }

// CreateRoom replies with the room under Code, creating it if needed.
type CreateRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

type ListRooms struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ListRooms) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox chan HubMsg
	rooms map[string]*room.Room
	rec   room.Recorder
	log   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub starts the registry. Every room it creates records moves to rec,
// which may be nil.
func NewHub(parent context.Context, rec room.Recorder, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		rec:    rec,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.ensure(msg.Code)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case EnsureRoom:
				msg.Reply <- h.ensure(msg.Code)

			case RemoveRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					rm.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.Code)
				}

			case ListRooms:
				codes := make([]string, 0, len(h.rooms))
				for code := range h.rooms {
					codes = append(codes, code)
				}
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) ensure(code string) *room.Room {
	if rm := h.rooms[code]; rm != nil {
		return rm
	}
	rm := room.New(h.ctx, code, h.rec, h.log)
	h.rooms[code] = rm
	h.log.Info("room created", zap.String("room", code))
	return rm
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}

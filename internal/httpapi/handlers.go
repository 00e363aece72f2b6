package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hexhive/internal/hub"
	"github.com/DoyleJ11/hexhive/internal/journal"
	"github.com/DoyleJ11/hexhive/internal/room"
)

const replyTimeout = 2 * time.Second

// MoveLister is the read side of the move journal.
type MoveLister interface {
	List(ctx context.Context, room string) ([]journal.Move, error)
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if ask(r.Context(), h, hub.GetRoom{Code: c}) == nil {
				code = c
				break
			}
			log.Debug("room code collision, regenerating", zap.String("code", c))
		}

		if ask(r.Context(), h, hub.CreateRoom{Code: code}) == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		h.Inbox() <- hub.ListRooms{Reply: reply}
		select {
		case codes := <-reply:
			sort.Strings(codes)
			writeJSON(w, http.StatusOK, codes)
		case <-time.After(replyTimeout):
			http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
		}
	}
}

type roomSummary struct {
	Code       string   `json:"code"`
	Players    []string `json:"players"`
	Spectators []string `json:"spectators"`
	Active     string   `json:"active"`
	Clients    int      `json:"clients"`
	Tiles      int      `json:"tiles"`
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := ask(r.Context(), h, hub.GetRoom{Code: chi.URLParam(r, "code")})
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		reply := make(chan room.View, 1)
		rm.Inbox() <- room.GetState{Reply: reply}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, roomSummary{
				Code:       v.Code,
				Players:    v.Players,
				Spectators: v.Spectators,
				Active:     v.Active,
				Clients:    v.NumClients,
				Tiles:      v.Board.Tiles(),
			})
		case <-time.After(replyTimeout):
			http.Error(w, "room unavailable", http.StatusServiceUnavailable)
		}
	}
}

func ListMoves(moves MoveLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if moves == nil {
			http.Error(w, "journal disabled", http.StatusNotFound)
			return
		}
		list, err := moves.List(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			http.Error(w, "journal unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ask sends a room query to the hub and waits for the reply. It returns nil
// when the room does not exist or the hub does not answer in time.
func ask(ctx context.Context, h *hub.Hub, msg hub.HubMsg) *room.Room {
	reply := make(chan *room.Room, 1)
	switch m := msg.(type) {
	case hub.GetRoom:
		m.Reply = reply
		msg = m
	case hub.CreateRoom:
		m.Reply = reply
		msg = m
	case hub.EnsureRoom:
		m.Reply = reply
		msg = m
	default:
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	select {
	case h.Inbox() <- msg:
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

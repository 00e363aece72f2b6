package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hexhive/internal/hub"
	"github.com/DoyleJ11/hexhive/internal/ws"
)

type Deps struct {
	Hub   *hub.Hub
	Moves MoveLister // nil when the journal is off
	Log   *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/rooms", CreateRoom(d.Hub, d.Log))
	r.Get("/rooms", ListRooms(d.Hub))
	r.Get("/rooms/{code}", GetRoom(d.Hub))
	r.Get("/rooms/{code}/moves", ListMoves(d.Moves))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.Log))
	return r
}

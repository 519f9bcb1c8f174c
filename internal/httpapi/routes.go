package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Players Players
	Arbiter Arbiter
	History History
	Socket  http.Handler
	Log     *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	if d.Socket != nil {
		r.Get("/ws", d.Socket.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(RequestLogger(log))
		r.Put("/players", UpsertPlayer(d.Players, log))

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(d.Players, log))
			r.Post("/join-queue", JoinQueue(d.Arbiter, log))
			r.Post("/leave-queue", LeaveQueue(d.Arbiter, log))
			r.Post("/turns", SubmitTurn(d.Arbiter, log))
			r.Get("/games/{gameID}/results", Results(d.Arbiter, log))
			if d.History != nil {
				r.Get("/players/me/games", MyGames(d.History, log))
			}
		})
	})
	return r
}

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AdeelRMZ/BlockShock/internal/hub"
	"github.com/AdeelRMZ/BlockShock/internal/settings"
	"github.com/AdeelRMZ/BlockShock/internal/ws"
)

func SetupRoutes(h *hub.Hub, s *settings.Service, wsOpts ws.Options, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/games", CreateGame(h, logger))
	r.Get("/games/{code}", GetGame(h))
	r.Get("/games/{code}/snapshot", GetSnapshot(h))
	r.Delete("/games/{code}", DeleteGame(h))
	r.Get("/settings", GetSettings(s))
	r.Put("/settings", PutSettings(s))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, wsOpts))
	return r
}

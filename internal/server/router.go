package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/constraint-warden/internal/config"
	"github.com/sevigo/constraint-warden/internal/core"
	"github.com/sevigo/constraint-warden/internal/server/handler"
	"github.com/sevigo/constraint-warden/internal/storage"
)

// NewRouter creates and configures a new HTTP router with middleware and the
// hook's ingestion and query routes. All routes are rooted at the configured
// hook identifier.
func NewRouter(cfg *config.Config, dispatcher core.Dispatcher, store storage.Store, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Configure middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	hookHandler := handler.NewHookHandler(dispatcher, logger)
	queryHandler := handler.NewQueryHandler(dispatcher, store, logger)

	r.Route("/"+cfg.Hook.ID, func(r chi.Router) {
		r.Post("/", hookHandler.Handle)
		r.Get("/status", queryHandler.Aggregate)
		r.Get("/{owner}/{project}/status/{commitHash}", queryHandler.Status)
		r.Get("/{owner}/{project}/result/{commitHash}", queryHandler.Result)
	})

	return r
}

package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the status surface routes.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TraceMiddleware(logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.SubmitTask)
		r.Get("/tasks/{id}", h.GetTask)
		r.Delete("/tasks/{id}", h.CancelTask)
		r.Get("/stats", h.Stats)
		r.Get("/stats/backend", h.BackendStats)
		r.Get("/connection", h.Connection)
	})

	return r
}

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the user API and health endpoints. Middlewares (the
// observability attacher in production) wrap every route, so handlers stay
// unaware of tracing.
func NewRouter(handler *Handler, health *HealthHandler, middlewares ...func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	router.Get("/metrics", health.Metrics)

	router.Route("/api/users", func(r chi.Router) {
		r.Post("/", handler.CreateUser)
		r.Get("/", handler.ListUsers)
		r.Get("/{id}", handler.GetUser)
		r.Put("/{id}", handler.UpdateUser)
		r.Delete("/{id}", handler.DeleteUser)
	})

	return router
}

package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/motorline/media-api/internal/middleware"
)

// Routes returns media router. Reads are public, writes require auth.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Ingest)
		r.Post("/batch", h.IngestBatch)
		r.With(middleware.RequireRole("admin")).Post("/reoptimize", h.BulkReoptimize)
		r.Post("/{id}/reoptimize", h.Reoptimize)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

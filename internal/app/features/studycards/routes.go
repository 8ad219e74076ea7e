package studycards

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the study card endpoints.
//
// When mounted at /api/cards:
//   - GET    /api/cards             - List (category/difficulty/completed/search)
//   - POST   /api/cards             - Create a card
//   - GET    /api/cards/stats       - Totals and average rating
//   - GET    /api/cards/categories  - Distinct categories
//   - GET    /api/cards/{id}        - Card detail
//   - PATCH  /api/cards/{id}        - Update (cleans replaced blobs)
//   - DELETE /api/cards/{id}        - Delete card and its blobs
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/categories", h.Categories)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

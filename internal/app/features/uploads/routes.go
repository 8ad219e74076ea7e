package uploads

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the upload endpoints.
//
// When mounted at /api/uploads:
//   - POST /api/uploads/media      - Store a media file as-is
//   - POST /api/uploads/card-image - Store a card image recompressed to WebP
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/media", h.Media)
	r.Post("/card-image", h.CardImage)

	return r
}

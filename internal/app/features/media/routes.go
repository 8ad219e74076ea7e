package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the media catalog endpoints.
//
// When mounted at /api/media:
//   - GET    /api/media                 - List (folder/sent/send_date/limit/cursor)
//   - POST   /api/media                 - Register an uploaded item
//   - GET    /api/media/stats           - Catalog totals
//   - GET    /api/media/by-date/{date}  - Items scheduled for a date
//   - POST   /api/media/upload-url      - Presigned direct-upload URL
//   - POST   /api/media/mark-sent       - Bulk sent flag
//   - POST   /api/media/assign-date     - Bulk send-date assignment
//   - GET    /api/media/{id}            - Item detail
//   - PATCH  /api/media/{id}            - Update note/date/sent/folder
//   - DELETE /api/media/{id}            - Delete record and blob
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Register)
	r.Get("/stats", h.Stats)
	r.Get("/by-date/{date}", h.ListByDate)
	r.Post("/upload-url", h.UploadURL)
	r.Post("/mark-sent", h.MarkSent)
	r.Post("/assign-date", h.AssignDate)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

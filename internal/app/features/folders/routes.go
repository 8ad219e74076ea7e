package folders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the folder endpoints.
//
// When mounted at /api/folders:
//   - GET    /api/folders                   - List folders (?parent=<id>|root)
//   - GET    /api/folders/tree              - Full folder tree
//   - POST   /api/folders                   - Create a folder
//   - GET    /api/folders/{id}              - Folder detail with media count
//   - GET    /api/folders/{id}/breadcrumbs  - Root-first ancestor chain
//   - POST   /api/folders/{id}/rename       - Rename (cascades paths)
//   - POST   /api/folders/{id}/move         - Reparent (cascades paths)
//   - DELETE /api/folders/{id}              - Delete recursively, detach media
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/tree", h.Tree)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/breadcrumbs", h.Breadcrumbs)
	r.Post("/{id}/rename", h.Rename)
	r.Post("/{id}/move", h.Move)
	r.Delete("/{id}", h.Delete)

	return r
}

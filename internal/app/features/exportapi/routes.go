package exportapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/system/apicors"
	"github.com/dalemusser/keepsake/internal/app/system/auth"
)

// Routes returns a router with the export endpoints.
//
// When mounted at /api/export:
//   - GET /api/export/cards      - Export cards (?category=&search=&limit=)
//   - GET /api/export/cards/{id} - Export a single card
//
// Authentication is via API key (Bearer token in Authorization header).
// CORS is permissive since API key auth carries no cookies.
func Routes(h *Handler, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())
	r.Use(auth.APIKeyAuth(apiKey, logger))

	r.Get("/cards", h.Export)
	r.Get("/cards/{id}", h.ExportOne)

	return r
}

// Package exportapi provides the API-key protected study card export
// endpoints for external consumers.
package exportapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/store/studycard"
	"github.com/dalemusser/keepsake/internal/app/system/jsonutil"
)

const maxExportLimit = 100

// Handler handles export API requests.
type Handler struct {
	cards  *studycard.Store
	logger *zap.Logger
}

// NewHandler creates a new export handler.
func NewHandler(cards *studycard.Store, logger *zap.Logger) *Handler {
	return &Handler{
		cards:  cards,
		logger: logger,
	}
}

// Export handles GET /api/export/cards. Returns cards with the category
// list, total count, and a generation timestamp so consumers can cache.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := studycard.ListOptions{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Limit:    maxExportLimit,
		Cursor:   q.Get("cursor"),
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.ParseInt(l, 10, 64)
		if err != nil || limit < 1 || limit > maxExportLimit {
			jsonutil.BadRequest(w, "limit must be between 1 and 100")
			return
		}
		opts.Limit = limit
	}

	cards, nextCursor, err := h.cards.List(r.Context(), opts)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	categories, err := h.cards.Categories(r.Context())
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	stats, err := h.cards.GetStats(r.Context())
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("cards exported",
		zap.Int("count", len(cards)),
		zap.String("category", opts.Category))

	jsonutil.OK(w, map[string]any{
		"cards":       cards,
		"categories":  categories,
		"total":       stats.Total,
		"nextCursor":  nextCursor,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// ExportOne handles GET /api/export/cards/{id}.
func (h *Handler) ExportOne(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "invalid card id")
		return
	}

	card, err := h.cards.GetByID(r.Context(), id)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	jsonutil.OK(w, map[string]any{
		"card":        card,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

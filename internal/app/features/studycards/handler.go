// Package studycards provides the study card catalog JSON API.
package studycards

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/store/studycard"
	"github.com/dalemusser/keepsake/internal/app/system/blobstore"
	"github.com/dalemusser/keepsake/internal/app/system/jsonutil"
	"github.com/dalemusser/keepsake/internal/domain/models"
)

// Handler handles study card API requests.
type Handler struct {
	cards  *studycard.Store
	blobs  blobstore.Store
	logger *zap.Logger
}

// NewHandler creates a new study cards handler.
func NewHandler(cards *studycard.Store, blobs blobstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		cards:  cards,
		blobs:  blobs,
		logger: logger,
	}
}

func parseID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// List handles GET /api/cards with category/difficulty/completed/search/
// limit/cursor query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := studycard.ListOptions{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Search:     q.Get("search"),
		Cursor:     q.Get("cursor"),
	}

	if c := q.Get("completed"); c != "" {
		completed, err := strconv.ParseBool(c)
		if err != nil {
			jsonutil.BadRequest(w, "completed must be true or false")
			return
		}
		opts.IsCompleted = &completed
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.ParseInt(l, 10, 64)
		if err != nil || limit < 1 {
			jsonutil.BadRequest(w, "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	cards, nextCursor, err := h.cards.List(r.Context(), opts)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	jsonutil.OK(w, map[string]any{
		"cards":      cards,
		"nextCursor": nextCursor,
	})
}

// Stats handles GET /api/cards/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cards.GetStats(r.Context())
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, stats)
}

// Categories handles GET /api/cards/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.cards.Categories(r.Context())
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"categories": categories})
}

// Get handles GET /api/cards/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid card id")
		return
	}

	card, err := h.cards.GetByID(r.Context(), id)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"card": card})
}

type createRequest struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	ReferenceURL  string              `json:"referenceUrl"`
	YoutubeURL    string              `json:"youtubeUrl"`
	ImageURL      string              `json:"imageUrl"`
	ImageBlobKey  string              `json:"imageBlobKey"`
	Attachments   []models.Attachment `json:"attachments"`
	Category      string              `json:"category"`
	Difficulty    string              `json:"difficulty"`
	Tags          string              `json:"tags"`
	Rating        int                 `json:"rating"`
	EstimatedCost *float64            `json:"estimatedCost"`
	Notes         string              `json:"notes"`
}

// Create handles POST /api/cards.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}

	card, err := h.cards.Create(r.Context(), studycard.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		ReferenceURL:  req.ReferenceURL,
		YoutubeURL:    req.YoutubeURL,
		ImageURL:      req.ImageURL,
		ImageBlobKey:  req.ImageBlobKey,
		Attachments:   req.Attachments,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
		Tags:          req.Tags,
		Rating:        req.Rating,
		EstimatedCost: req.EstimatedCost,
		Notes:         req.Notes,
	})
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("study card created", zap.String("card_id", card.ID.Hex()))
	jsonutil.Created(w, map[string]any{"card": card})
}

type updateRequest struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	ReferenceURL  *string              `json:"referenceUrl"`
	YoutubeURL    *string              `json:"youtubeUrl"`
	ImageURL      *string              `json:"imageUrl"`
	ImageBlobKey  *string              `json:"imageBlobKey"`
	Attachments   *[]models.Attachment `json:"attachments"`
	Category      *string              `json:"category"`
	Difficulty    *string              `json:"difficulty"`
	Tags          *string              `json:"tags"`
	IsCompleted   *bool                `json:"isCompleted"`
	Rating        *int                 `json:"rating"`
	EstimatedCost json.RawMessage      `json:"estimatedCost"`
	Notes         *string              `json:"notes"`
}

// estimatedCost distinguishes an absent estimatedCost (leave unchanged) from
// an explicit null (clear) from a number (set).
func (req *updateRequest) estimatedCost() (*float64, bool, error) {
	if len(req.EstimatedCost) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(req.EstimatedCost), []byte("null")) {
		return nil, true, nil
	}
	var cost float64
	if err := json.Unmarshal(req.EstimatedCost, &cost); err != nil {
		return nil, false, err
	}
	return &cost, false, nil
}

// Update handles PATCH /api/cards/{id}. Replaced image or attachment blobs
// are cleaned up by the store.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid card id")
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}

	cost, clearCost, err := req.estimatedCost()
	if err != nil {
		jsonutil.BadRequest(w, "estimatedCost must be a number or null")
		return
	}

	card, err := h.cards.Update(r.Context(), id, studycard.UpdateInput{
		Title:              req.Title,
		Description:        req.Description,
		ReferenceURL:       req.ReferenceURL,
		YoutubeURL:         req.YoutubeURL,
		ImageURL:           req.ImageURL,
		ImageBlobKey:       req.ImageBlobKey,
		Attachments:        req.Attachments,
		Category:           req.Category,
		Difficulty:         req.Difficulty,
		Tags:               req.Tags,
		IsCompleted:        req.IsCompleted,
		Rating:             req.Rating,
		EstimatedCost:      cost,
		ClearEstimatedCost: clearCost,
		Notes:              req.Notes,
	}, h.blobs)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"card": card})
}

// Delete handles DELETE /api/cards/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid card id")
		return
	}

	if err := h.cards.Delete(r.Context(), id, h.blobs); err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("study card deleted", zap.String("card_id", id.Hex()))
	jsonutil.NoContent(w)
}

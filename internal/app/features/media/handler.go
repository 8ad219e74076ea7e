// Package media provides the media catalog JSON API.
package media

import (
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/store/media"
	"github.com/dalemusser/keepsake/internal/app/system/blobstore"
	"github.com/dalemusser/keepsake/internal/app/system/jsonutil"
)

// presignTTL bounds how long a generated upload URL stays valid.
const presignTTL = 15 * time.Minute

// Handler handles media API requests.
type Handler struct {
	media  *media.Store
	blobs  blobstore.Store
	logger *zap.Logger
}

// NewHandler creates a new media handler.
func NewHandler(mediaStore *media.Store, blobs blobstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		media:  mediaStore,
		blobs:  blobs,
		logger: logger,
	}
}

func parseID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// List handles GET /api/media with folder/sent/send_date/limit/cursor
// query parameters. The folder parameter accepts an ObjectID or "root".
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := media.ListOptions{
		SendDate: q.Get("send_date"),
		Cursor:   q.Get("cursor"),
	}

	switch f := q.Get("folder"); {
	case f == "root":
		opts.RootOnly = true
	case f != "":
		id, err := primitive.ObjectIDFromHex(f)
		if err != nil {
			jsonutil.BadRequest(w, "invalid folder id")
			return
		}
		opts.FolderID = &id
	}

	if s := q.Get("sent"); s != "" {
		sent, err := strconv.ParseBool(s)
		if err != nil {
			jsonutil.BadRequest(w, "sent must be true or false")
			return
		}
		opts.Sent = &sent
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.ParseInt(l, 10, 64)
		if err != nil || limit < 1 {
			jsonutil.BadRequest(w, "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	items, nextCursor, err := h.media.List(r.Context(), opts)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	jsonutil.OK(w, map[string]any{
		"items":      items,
		"nextCursor": nextCursor,
	})
}

// Stats handles GET /api/media/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.media.GetStats(r.Context())
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, stats)
}

// ListByDate handles GET /api/media/by-date/{date}.
func (h *Handler) ListByDate(w http.ResponseWriter, r *http.Request) {
	items, err := h.media.ListByDate(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"items": items})
}

// Get handles GET /api/media/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid media id")
		return
	}

	item, err := h.media.GetByID(r.Context(), id)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"item": item})
}

type registerRequest struct {
	FileName     string  `json:"fileName"`
	OriginalName string  `json:"originalName"`
	MimeType     string  `json:"mimeType"`
	FileSize     int64   `json:"fileSize"`
	StorageKey   string  `json:"storageKey"`
	URL          string  `json:"url"`
	FolderID     *string `json:"folderId"`
	Note         string  `json:"note"`
	SendDate     string  `json:"sendDate"`
}

// Register handles POST /api/media: recording an item whose bytes were
// already uploaded (directly or via a presigned URL). The blob and the
// record are separate steps; a failure here leaves the blob in place and
// is reported to the caller rather than rolled back.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}

	var folderID *primitive.ObjectID
	if req.FolderID != nil && *req.FolderID != "" {
		id, err := primitive.ObjectIDFromHex(*req.FolderID)
		if err != nil {
			jsonutil.BadRequest(w, "invalid folder id")
			return
		}
		folderID = &id
	}

	blobURL := req.URL
	if blobURL == "" && req.StorageKey != "" {
		blobURL = h.blobs.URL(req.StorageKey)
	}

	item, err := h.media.Create(r.Context(), media.CreateInput{
		FileName:     req.FileName,
		OriginalName: req.OriginalName,
		MimeType:     req.MimeType,
		FileSize:     req.FileSize,
		BlobKey:      req.StorageKey,
		BlobURL:      blobURL,
		FolderID:     folderID,
		Note:         req.Note,
		SendDate:     req.SendDate,
	})
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("media item registered",
		zap.String("media_id", item.ID.Hex()),
		zap.String("blob_key", item.BlobKey))
	jsonutil.Created(w, map[string]any{"item": item})
}

type updateRequest struct {
	Note     *string `json:"note"`
	SendDate *string `json:"sendDate"`
	Sent     *bool   `json:"sent"`
	FolderID *string `json:"folderId"`
}

// Update handles PATCH /api/media/{id}. Empty-string sendDate or folderId
// clears the field.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid media id")
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}

	input := media.UpdateInput{
		Note: req.Note,
		Sent: req.Sent,
	}
	if req.SendDate != nil {
		if *req.SendDate == "" {
			input.ClearSendDate = true
		} else {
			input.SendDate = req.SendDate
		}
	}
	if req.FolderID != nil {
		if *req.FolderID == "" {
			input.ClearFolder = true
		} else {
			fid, err := primitive.ObjectIDFromHex(*req.FolderID)
			if err != nil {
				jsonutil.BadRequest(w, "invalid folder id")
				return
			}
			input.FolderID = &fid
		}
	}

	item, err := h.media.Update(r.Context(), id, input)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"item": item})
}

// Delete handles DELETE /api/media/{id}: the record and the blob go
// together or not at all.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid media id")
		return
	}

	if err := h.media.Delete(r.Context(), id, h.blobs); err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("media item deleted", zap.String("media_id", id.Hex()))
	jsonutil.NoContent(w)
}

type uploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	FolderPath  string `json:"folderPath"`
}

// UploadURL handles POST /api/media/upload-url: issue a presigned PUT URL
// so large files can bypass the app server. The storage key embeds a random
// prefix so repeated uploads of the same file never collide.
func (h *Handler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	if req.FileName == "" {
		jsonutil.BadRequest(w, "fileName is required")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fileName := fmt.Sprintf("%s_%s", uuid.New().String()[:8], SanitizeFileName(req.FileName))
	storageKey := blobstore.Key("media", req.FolderPath, fileName)

	uploadURL, err := h.blobs.PresignPut(r.Context(), storageKey, contentType, presignTTL)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	jsonutil.OK(w, map[string]any{
		"uploadUrl":  uploadURL,
		"storageKey": storageKey,
		"publicUrl":  h.blobs.URL(storageKey),
		"fileName":   fileName,
	})
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func parseIDs(raw []string) ([]primitive.ObjectID, bool) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// MarkSent handles POST /api/media/mark-sent.
func (h *Handler) MarkSent(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	ids, ok := parseIDs(req.IDs)
	if !ok {
		jsonutil.BadRequest(w, "invalid media id in list")
		return
	}

	n, err := h.media.MarkSent(r.Context(), ids)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"modified": n})
}

type assignDateRequest struct {
	IDs  []string `json:"ids"`
	Date string   `json:"date"`
}

// AssignDate handles POST /api/media/assign-date.
func (h *Handler) AssignDate(w http.ResponseWriter, r *http.Request) {
	var req assignDateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	ids, ok := parseIDs(req.IDs)
	if !ok {
		jsonutil.BadRequest(w, "invalid media id in list")
		return
	}

	n, err := h.media.AssignToDate(r.Context(), ids, req.Date)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"modified": n})
}

// SanitizeFileName strips path separators and awkward characters from an
// uploaded file name, keeping the extension.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if s == "" || s == "." || s == ".." {
		return "file"
	}
	return s
}

// Package uploads provides the multipart upload endpoints.
package uploads

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mediafeature "github.com/dalemusser/keepsake/internal/app/features/media"
	"github.com/dalemusser/keepsake/internal/app/system/blobstore"
	"github.com/dalemusser/keepsake/internal/app/system/imageutil"
	"github.com/dalemusser/keepsake/internal/app/system/jsonutil"
)

const (
	// maxUploadSize bounds a single multipart upload (50 MiB).
	maxUploadSize = 50 << 20

	// multipartMemory is how much of a parsed form stays in memory before
	// spilling to disk.
	multipartMemory = 10 << 20
)

// Handler handles file upload requests.
type Handler struct {
	blobs  blobstore.Store
	logger *zap.Logger
}

// NewHandler creates a new uploads handler.
func NewHandler(blobs blobstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		blobs:  blobs,
		logger: logger,
	}
}

// readUpload parses the multipart form and returns the file bytes plus
// metadata. The caller still has to register the media record separately.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		jsonutil.BadRequest(w, "could not parse multipart form (is the file too large?)")
		return nil, "", "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.BadRequest(w, "file field is required")
		return nil, "", "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonutil.BadRequest(w, "could not read uploaded file")
		return nil, "", "", false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return data, header.Filename, contentType, true
}

// Media handles POST /api/uploads/media. The file is stored as-is under
// the given folder path; registering the catalog record is a separate
// POST /api/media call.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	data, originalName, contentType, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	folderPath := r.FormValue("folderPath")
	fileName := fmt.Sprintf("%s_%s", uuid.New().String()[:8], mediafeature.SanitizeFileName(originalName))
	storageKey := blobstore.Key("media", folderPath, fileName)

	if err := h.blobs.Put(r.Context(), storageKey, bytes.NewReader(data), contentType); err != nil {
		h.logger.Error("media upload failed",
			zap.String("storage_key", storageKey),
			zap.Error(err))
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("media file stored",
		zap.String("storage_key", storageKey),
		zap.Int("size", len(data)))

	jsonutil.Created(w, map[string]any{
		"fileName":     fileName,
		"originalName": originalName,
		"mimeType":     contentType,
		"fileSize":     len(data),
		"storageKey":   storageKey,
		"url":          h.blobs.URL(storageKey),
	})
}

// CardImage handles POST /api/uploads/card-image. The image is recompressed
// to WebP within the size budget before storage.
func (h *Handler) CardImage(w http.ResponseWriter, r *http.Request) {
	data, originalName, _, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	converted, err := imageutil.ToWebP(data)
	if err != nil {
		jsonutil.BadRequest(w, "file is not a supported image")
		return
	}

	subfolder := strings.Trim(r.FormValue("subfolder"), "/")
	if subfolder == "" {
		subfolder = "card-images"
	}

	base := mediafeature.SanitizeFileName(originalName)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	fileName := fmt.Sprintf("%s_%s.webp", uuid.New().String()[:8], base)
	storageKey := blobstore.Key("cards", subfolder, fileName)

	if err := h.blobs.Put(r.Context(), storageKey, bytes.NewReader(converted), imageutil.ContentType); err != nil {
		h.logger.Error("card image upload failed",
			zap.String("storage_key", storageKey),
			zap.Error(err))
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("card image stored",
		zap.String("storage_key", storageKey),
		zap.Int("original_size", len(data)),
		zap.Int("compressed_size", len(converted)))

	jsonutil.Created(w, map[string]any{
		"fileName":       fileName,
		"storageKey":     storageKey,
		"imageUrl":       h.blobs.URL(storageKey),
		"originalSize":   len(data),
		"compressedSize": len(converted),
		"subfolder":      subfolder,
	})
}

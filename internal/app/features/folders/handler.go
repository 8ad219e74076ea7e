// Package folders provides the folder hierarchy JSON API.
package folders

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/store/folder"
	"github.com/dalemusser/keepsake/internal/app/store/media"
	"github.com/dalemusser/keepsake/internal/app/system/jsonutil"
	"github.com/dalemusser/keepsake/internal/domain"
)

// Handler handles folder API requests.
type Handler struct {
	folders *folder.Store
	media   *media.Store
	logger  *zap.Logger
}

// NewHandler creates a new folders handler.
func NewHandler(folders *folder.Store, media *media.Store, logger *zap.Logger) *Handler {
	return &Handler{
		folders: folders,
		media:   media,
		logger:  logger,
	}
}

func parseID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// List handles GET /api/folders. The parent query selects scope:
// "root" or absent lists root folders, an ObjectID lists that folder's
// children.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var parentID *primitive.ObjectID
	if p := r.URL.Query().Get("parent"); p != "" && p != "root" {
		id, err := primitive.ObjectIDFromHex(p)
		if err != nil {
			jsonutil.BadRequest(w, "invalid parent id")
			return
		}
		parentID = &id
	}

	folders, err := h.folders.ListByParent(r.Context(), parentID)
	if err != nil {
		h.logger.Error("list folders failed", zap.Error(err))
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"folders": folders})
}

// Tree handles GET /api/folders/tree. Returns every folder; the client
// rebuilds the hierarchy from parent references.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folders.Tree(r.Context())
	if err != nil {
		h.logger.Error("folder tree failed", zap.Error(err))
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"folders": folders})
}

// Get handles GET /api/folders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid folder id")
		return
	}

	f, err := h.folders.GetByID(r.Context(), id)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	mediaCount, err := h.media.CountByFolder(r.Context(), &id)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	jsonutil.OK(w, map[string]any{"folder": f, "mediaCount": mediaCount})
}

// Breadcrumbs handles GET /api/folders/{id}/breadcrumbs.
func (h *Handler) Breadcrumbs(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid folder id")
		return
	}

	crumbs, err := h.folders.Breadcrumbs(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCycleDetected) {
			h.logger.Error("folder parent chain forms a cycle",
				zap.String("folder_id", id.Hex()))
		}
		jsonutil.DomainError(w, err)
		return
	}
	jsonutil.OK(w, map[string]any{"breadcrumbs": crumbs})
}

type createRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

// Create handles POST /api/folders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}

	var parentID *primitive.ObjectID
	if req.ParentID != nil && *req.ParentID != "" {
		id, err := primitive.ObjectIDFromHex(*req.ParentID)
		if err != nil {
			jsonutil.BadRequest(w, "invalid parent id")
			return
		}
		parentID = &id
	}

	f, err := h.folders.Create(r.Context(), folder.CreateInput{
		Name:     req.Name,
		ParentID: parentID,
	})
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("folder created",
		zap.String("folder_id", f.ID.Hex()),
		zap.String("storage_path", f.StoragePath))
	jsonutil.Created(w, map[string]any{"folder": f})
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename handles POST /api/folders/{id}/rename.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid folder id")
		return
	}

	var req renameRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}

	f, err := h.folders.Rename(r.Context(), id, req.Name)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("folder renamed",
		zap.String("folder_id", id.Hex()),
		zap.String("storage_path", f.StoragePath))
	jsonutil.OK(w, map[string]any{"folder": f})
}

type moveRequest struct {
	ParentID *string `json:"parentId"`
}

// Move handles POST /api/folders/{id}/move. A null or empty parentId
// moves the folder to the root.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid folder id")
		return
	}

	var req moveRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}

	var parentID *primitive.ObjectID
	if req.ParentID != nil && *req.ParentID != "" {
		pid, err := primitive.ObjectIDFromHex(*req.ParentID)
		if err != nil {
			jsonutil.BadRequest(w, "invalid parent id")
			return
		}
		parentID = &pid
	}

	f, err := h.folders.Move(r.Context(), id, parentID)
	if err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("folder moved",
		zap.String("folder_id", id.Hex()),
		zap.String("storage_path", f.StoragePath))
	jsonutil.OK(w, map[string]any{"folder": f})
}

// Delete handles DELETE /api/folders/{id}. Descendant folders are deleted
// recursively; media items in them are detached.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonutil.BadRequest(w, "invalid folder id")
		return
	}

	if err := h.folders.Delete(r.Context(), id, h.media); err != nil {
		jsonutil.DomainError(w, err)
		return
	}

	h.logger.Info("folder deleted", zap.String("folder_id", id.Hex()))
	jsonutil.NoContent(w)
}

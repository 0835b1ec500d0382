package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/services"
)

// CreateFolderRequest for POST body.
type CreateFolderRequest struct {
	Name   string `json:"name" validate:"required"`
	UserID string `json:"user_id" validate:"required"`
}

// UpdateFolderRequest for PATCH body.
type UpdateFolderRequest struct {
	Name *string `json:"name"`
}

// FoldersHandler handles folder-related HTTP requests.
type FoldersHandler struct {
	service services.FolderService
	logger  *zap.Logger
}

// NewFoldersHandler creates a new folders handler.
func NewFoldersHandler(service services.FolderService, logger *zap.Logger) *FoldersHandler {
	return &FoldersHandler{service: service, logger: logger}
}

// RegisterRoutes registers the folders handler's routes on the given mux.
func (h *FoldersHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/folders", h.Create)
	mux.HandleFunc("GET /v1/folders", h.List)
	mux.HandleFunc("GET /v1/folders/{id}", h.Get)
	mux.HandleFunc("PATCH /v1/folders/{id}", h.Update)
	mux.HandleFunc("DELETE /v1/folders/{id}", h.Delete)
}

// Create handles POST /v1/folders
func (h *FoldersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	folder, err := h.service.Create(r.Context(), services.FolderCreate{
		Name:   req.Name,
		UserID: req.UserID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, folder)
}

// Get handles GET /v1/folders/{id}
func (h *FoldersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	folder, err := h.service.GetByID(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, folder)
}

// List handles GET /v1/folders
func (h *FoldersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	folders, err := h.service.List(r.Context(), services.FolderListParams{
		UserID: q.Get("user_id"),
		Name:   q.Get("name"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, folders)
}

// Update handles PATCH /v1/folders/{id}
func (h *FoldersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req UpdateFolderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	folder, err := h.service.Update(r.Context(), id, r.URL.Query().Get("user_id"), models.FolderUpdate{
		Name: req.Name,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, folder)
}

// Delete handles DELETE /v1/folders/{id}
func (h *FoldersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	deleted, err := h.service.Delete(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, deleted)
}

func (h *FoldersHandler) writeJSON(w http.ResponseWriter, data any) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *FoldersHandler) writeError(w http.ResponseWriter, err error) {
	if werr := WriteError(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}

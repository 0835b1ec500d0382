package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/services"
)

// CreateDashboardRequest for POST body.
type CreateDashboardRequest struct {
	UserID   string         `json:"user_id" validate:"required"`
	Name     string         `json:"name" validate:"required"`
	FolderID string         `json:"folder_id"`
	Metadata map[string]any `json:"metadata"`
}

// UpdateDashboardRequest for PATCH body. Absent fields are left untouched;
// an explicit empty folder_id detaches the dashboard from its folder.
type UpdateDashboardRequest struct {
	Name     *string        `json:"name"`
	FolderID *string        `json:"folder_id"`
	Metadata map[string]any `json:"metadata"`
}

// DashboardsHandler handles dashboard-related HTTP requests.
type DashboardsHandler struct {
	service services.DashboardService
	logger  *zap.Logger
}

// NewDashboardsHandler creates a new dashboards handler.
func NewDashboardsHandler(service services.DashboardService, logger *zap.Logger) *DashboardsHandler {
	return &DashboardsHandler{service: service, logger: logger}
}

// RegisterRoutes registers the dashboards handler's routes on the given mux.
func (h *DashboardsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/dashboards", h.Create)
	mux.HandleFunc("GET /v1/dashboards", h.List)
	mux.HandleFunc("GET /v1/dashboards/{id}", h.Get)
	mux.HandleFunc("PATCH /v1/dashboards/{id}", h.Update)
	mux.HandleFunc("DELETE /v1/dashboards/{id}", h.Delete)
	mux.HandleFunc("POST /v1/dashboards/{id}/published", h.Publish)
	mux.HandleFunc("GET /v1/dashboards/{id}/published", h.GetPublished)
}

// Create handles POST /v1/dashboards
func (h *DashboardsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDashboardRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	folderID, err := optionalObjectID(req.FolderID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	dashboard, err := h.service.Create(r.Context(), services.DashboardCreate{
		UserID:   req.UserID,
		Name:     req.Name,
		FolderID: folderID,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, dashboard)
}

// Get handles GET /v1/dashboards/{id}
func (h *DashboardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	dashboard, err := h.service.GetByID(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, dashboard)
}

// List handles GET /v1/dashboards
func (h *DashboardsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	folderID, err := optionalObjectID(q.Get("folder_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	dashboards, err := h.service.List(r.Context(), services.DashboardListParams{
		UserID:   q.Get("user_id"),
		Name:     q.Get("name"),
		FolderID: folderID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, dashboards)
}

// Update handles PATCH /v1/dashboards/{id}
func (h *DashboardsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req UpdateDashboardRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	update := models.DashboardUpdate{
		Name:     req.Name,
		Metadata: req.Metadata,
	}
	if req.FolderID != nil {
		if *req.FolderID == "" {
			update.ClearFolder = true
		} else {
			folderID, err := optionalObjectID(*req.FolderID)
			if err != nil {
				h.writeError(w, err)
				return
			}
			update.FolderID = folderID
		}
	}

	dashboard, err := h.service.Update(r.Context(), id, r.URL.Query().Get("user_id"), update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, dashboard)
}

// Delete handles DELETE /v1/dashboards/{id}
func (h *DashboardsHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// Publish handles POST /v1/dashboards/{id}/published
func (h *DashboardsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	dashboard, err := h.service.Publish(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, dashboard)
}

// GetPublished handles GET /v1/dashboards/{id}/published
func (h *DashboardsHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	published, err := h.service.GetPublished(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, published)
}

func (h *DashboardsHandler) writeJSON(w http.ResponseWriter, data any) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DashboardsHandler) writeError(w http.ResponseWriter, err error) {
	if werr := WriteError(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}

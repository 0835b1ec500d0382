package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/services"
)

// CreateQueryRequest for POST body.
type CreateQueryRequest struct {
	Name         string         `json:"name" validate:"required"`
	UserID       string         `json:"user_id" validate:"required"`
	ConnectionID string         `json:"connection_id" validate:"required"`
	Metadata     map[string]any `json:"metadata"`
}

// UpdateQueryRequest for PATCH body. Absent fields are left untouched.
type UpdateQueryRequest struct {
	Name     *string        `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

// QueriesHandler handles query-related HTTP requests.
type QueriesHandler struct {
	service services.QueryService
	logger  *zap.Logger
}

// NewQueriesHandler creates a new queries handler.
func NewQueriesHandler(service services.QueryService, logger *zap.Logger) *QueriesHandler {
	return &QueriesHandler{service: service, logger: logger}
}

// RegisterRoutes registers the queries handler's routes on the given mux.
func (h *QueriesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/queries", h.Create)
	mux.HandleFunc("GET /v1/queries", h.List)
	mux.HandleFunc("GET /v1/queries/{id}", h.Get)
	mux.HandleFunc("PATCH /v1/queries/{id}", h.Update)
	mux.HandleFunc("DELETE /v1/queries/{id}", h.Delete)
}

// Create handles POST /v1/queries
func (h *QueriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQueryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	connectionID, err := bson.ObjectIDFromHex(req.ConnectionID)
	if err != nil {
		h.writeError(w, apperrors.BadRequest("Invalid connection_id format"))
		return
	}

	query, err := h.service.Create(r.Context(), services.QueryCreate{
		Name:         req.Name,
		UserID:       req.UserID,
		ConnectionID: connectionID,
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, query)
}

// Get handles GET /v1/queries/{id}
func (h *QueriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	query, err := h.service.GetByID(r.Context(), id, requesterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, query)
}

// List handles GET /v1/queries
func (h *QueriesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	connectionID, err := optionalObjectID(q.Get("connection_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	queries, err := h.service.List(r.Context(), services.QueryListParams{
		ConnectionID: connectionID,
		UserID:       q.Get("user_id"),
		Name:         q.Get("name"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, queries)
}

// Update handles PATCH /v1/queries/{id}
func (h *QueriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req UpdateQueryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	query, err := h.service.Update(r.Context(), id, r.URL.Query().Get("user_id"), models.QueryUpdate{
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, query)
}

// Delete handles DELETE /v1/queries/{id}
func (h *QueriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *QueriesHandler) writeJSON(w http.ResponseWriter, data any) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *QueriesHandler) writeError(w http.ResponseWriter, err error) {
	if werr := WriteError(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}

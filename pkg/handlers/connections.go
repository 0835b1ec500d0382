package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dashkit-io/board-engine/pkg/models"
	"github.com/dashkit-io/board-engine/pkg/services"
)

// CreateConnectionRequest for POST body.
type CreateConnectionRequest struct {
	Name        string         `json:"name" validate:"required"`
	UserID      string         `json:"user_id" validate:"required"`
	Type        string         `json:"type" validate:"required,oneof=REST MONGO POSTGRES"`
	Credentials map[string]any `json:"credentials"`
	Variables   map[string]any `json:"variables"`
}

// UpdateConnectionRequest for PATCH body. Absent fields are left untouched.
type UpdateConnectionRequest struct {
	Name        *string        `json:"name"`
	Credentials map[string]any `json:"credentials"`
	Variables   map[string]any `json:"variables"`
}

// ConnectionsHandler handles connection-related HTTP requests.
type ConnectionsHandler struct {
	service services.ConnectionService
	logger  *zap.Logger
}

// NewConnectionsHandler creates a new connections handler.
func NewConnectionsHandler(service services.ConnectionService, logger *zap.Logger) *ConnectionsHandler {
	return &ConnectionsHandler{service: service, logger: logger}
}

// RegisterRoutes registers the connections handler's routes on the given mux.
func (h *ConnectionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/connections", h.Create)
	mux.HandleFunc("GET /v1/connections", h.List)
	mux.HandleFunc("GET /v1/connections/{id}", h.Get)
	mux.HandleFunc("PATCH /v1/connections/{id}", h.Update)
	mux.HandleFunc("DELETE /v1/connections/{id}", h.Delete)
}

// Create handles POST /v1/connections
func (h *ConnectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	connection, err := h.service.Create(r.Context(), services.ConnectionCreate{
		Name:        req.Name,
		UserID:      req.UserID,
		Type:        models.ConnectionType(req.Type),
		Credentials: req.Credentials,
		Variables:   req.Variables,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, connection)
}

// Get handles GET /v1/connections/{id}
func (h *ConnectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	connection, err := h.service.GetByID(r.Context(), id, requesterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, connection)
}

// List handles GET /v1/connections
func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	connections, err := h.service.List(r.Context(), services.ConnectionListParams{
		UserID: q.Get("user_id"),
		Type:   models.ConnectionType(q.Get("type")),
		Name:   q.Get("name"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, connections)
}

// Update handles PATCH /v1/connections/{id}
func (h *ConnectionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req UpdateConnectionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	connection, err := h.service.Update(r.Context(), id, requesterFrom(r), models.ConnectionUpdate{
		Name:        req.Name,
		Credentials: req.Credentials,
		Variables:   req.Variables,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, connection)
}

// Delete handles DELETE /v1/connections/{id}
func (h *ConnectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	deleted, err := h.service.Delete(r.Context(), id, requesterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, deleted)
}

func (h *ConnectionsHandler) writeJSON(w http.ResponseWriter, data any) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ConnectionsHandler) writeError(w http.ResponseWriter, err error) {
	if werr := WriteError(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}

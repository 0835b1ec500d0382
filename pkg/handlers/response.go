package handlers

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
)

// errorEnvelope is the JSON error body: {"error": {"code", "description"}}.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError renders an error as the standard envelope. Coded application
// errors keep their status and code; anything else becomes a 500 internal.
func WriteError(w http.ResponseWriter, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("unexpected error: %v", err)
	}
	return WriteJSON(w, appErr.Status, errorEnvelope{
		Error: errorBody{
			Code:        appErr.Code,
			Description: appErr.Description,
		},
	})
}

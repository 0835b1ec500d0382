// Package apperrors defines the coded error taxonomy surfaced to API clients.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Short string codes carried in the error envelope. Clients switch on these,
// so they are part of the API contract.
const (
	CodeInternal           = "D0"
	CodeBadRequest         = "D1"
	CodeConnectionNotFound = "D2"
	CodeNotAuthorized      = "D3"
	CodeDashboardNotFound  = "D4"
	CodeFolderNotFound     = "D5"
	CodeQueryNotFound      = "D6"
)

// Error is a coded application error with an HTTP status. Services construct
// these for predictable failures; repositories wrap driver failures as
// internal errors. Anything else reaching the handler layer renders as D0.
type Error struct {
	Status      int
	Code        string
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Internal wraps an unexpected persistence or infrastructure failure.
func Internal(format string, args ...any) *Error {
	return &Error{
		Status:      http.StatusInternalServerError,
		Code:        CodeInternal,
		Description: fmt.Sprintf(format, args...),
	}
}

// BadRequest reports a malformed or invalid request body.
func BadRequest(description string) *Error {
	return &Error{
		Status:      http.StatusBadRequest,
		Code:        CodeBadRequest,
		Description: description,
	}
}

// NotAuthorized reports a failed ownership or API-key check.
func NotAuthorized(description string) *Error {
	return &Error{
		Status:      http.StatusForbidden,
		Code:        CodeNotAuthorized,
		Description: description,
	}
}

// NotFound reports a missing resource using its per-resource code.
func NotFound(code, description string) *Error {
	return &Error{
		Status:      http.StatusNotFound,
		Code:        code,
		Description: description,
	}
}

// As extracts an *Error from err, if it is one.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

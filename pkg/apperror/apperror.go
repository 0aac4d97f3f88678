package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPermission        = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal server error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrPersistenceFailed = errors.New("persistence failed")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error

	// RawOutput holds the model text behind a malformed response. It is for logs only.
	RawOutput string
	Written   int
	Expected  int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

// Cause returns the underlying error, if any.
func (e *AppError) Cause() error {
	return e.Err
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewProfileNotFound(externalID string) *AppError {
	return NewNotFound("Profile", externalID)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Invalid credentials", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

func NewModelUnavailable(details string, err error) *AppError {
	return NewAppError(ErrModelUnavailable, "The AI model could not be reached", details, err)
}

func NewMalformedResponse(details, raw string, err error) *AppError {
	e := NewAppError(ErrMalformedResponse, "The AI model returned an unusable response", details, err)
	e.RawOutput = raw
	return e
}

func NewPersistenceFailed(details string, written, expected int, err error) *AppError {
	e := NewAppError(ErrPersistenceFailed, "Failed to save results", details, err)
	e.Written = written
	e.Expected = expected
	return e
}

// Kind returns a stable machine-readable classification for err.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrPermission):
		return "permission_denied"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrPersistenceFailed):
		return "persistence_failed"
	}
	return "internal"
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrPermission) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrModelUnavailable) || errors.Is(err, ErrMalformedResponse) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ToJSON renders the caller-visible failure body. RawOutput and the cause are never included.
func (e *AppError) ToJSON() gin.H {
	body := gin.H{
		"error": e.Message,
		"kind":  Kind(e),
	}
	if e.Details != "" {
		body["details"] = e.Details
	}
	if errors.Is(e, ErrPersistenceFailed) {
		body["written"] = e.Written
		body["expected"] = e.Expected
	}
	return body
}

// From classifies err as an *AppError, wrapping anything unclassified as internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal("unexpected error", err)
}

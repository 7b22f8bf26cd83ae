// Package apperror defines the domain error taxonomy shared by the service
// and handler layers.
//
// Services return these errors; the HTTP boundary maps them to status codes.
// Neither layer imports the other's vocabulary — the sentinel errors below are
// the whole contract between them.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the caller's identity could not be established:
	// missing, malformed, tampered, or expired token, or a token whose subject
	// no longer exists. All of those surface identically — the client learns
	// only "unauthorized", never which check failed.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller is known but not permitted. Distinct from
	// ErrUnauthenticated: 403 vs 401.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// ErrorResponse is the wire shape of every error the API returns:
// {"error": <machine-readable>, "message": <for humans>}. It lives here
// rather than in the handler package because the auth middleware writes its
// own 401 body and both must stay identical.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AppError pairs a sentinel with a message safe to show to clients.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable, never contains internal detail
	Field   string // optional: the request field at fault
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Unauthenticated returns the uniform "can't establish identity" error.
// The internal reason (missing vs expired vs unknown subject) is deliberately
// not part of the message.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "invalid authentication credentials",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Conflict reports a uniqueness violation on the named field.
func Conflict(field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   field,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

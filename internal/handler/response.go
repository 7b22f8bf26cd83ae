// Package handler is the HTTP boundary: it parses requests, invokes the
// service layer, and translates results — including domain errors — into
// JSON responses.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tumgpt/chat-backend/internal/apperror"
)

// writeJSON sends data with the given status. Headers must be set before the
// first byte of body goes out, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends the uniform
// error body.
//
// This is the only place in the codebase that knows both vocabularies: the
// service layer's apperror sentinels and HTTP status codes. errors.Is walks
// the wrapped chain, so services are free to annotate errors with context on
// the way up.
//
// Anything that isn't an AppError becomes a bare 500 — internal details
// (driver errors, query text) never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized // 401
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			errorType = "conflict"
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusUnprocessableEntity // 422
			errorType = "validation_error"
		}

		if status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}

		writeJSON(w, status, apperror.ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, apperror.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads the request body into dst, rejecting malformed JSON with
// a validation error the caller can pass straight to writeError.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}

// errUnauthenticated is the handlers' fallback when a route that should sit
// behind RequireAuth has no user in context.
func errUnauthenticated() error {
	return apperror.Unauthenticated()
}

// pagination reads ?limit and ?offset, falling back to zero values — the
// service/repository layers apply their own defaults and caps, so garbage
// here just means "use the defaults".
func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// Package handlers provides the HTTP handlers and middleware for the
// TaskChat web server.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scrypster/taskchat/internal/auth"
	"github.com/scrypster/taskchat/internal/llm"
	"github.com/scrypster/taskchat/internal/storage"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// writeSentinelError maps the sentinel errors of the lower layers onto HTTP
// statuses. Anything unrecognized becomes an opaque 500.
func writeSentinelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, llm.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, "LLM_UNAVAILABLE", "the assistant is temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

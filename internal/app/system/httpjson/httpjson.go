// Package httpjson holds the small shared helpers for the JSON API
// surface: response encoding, request decoding, and the mapping from
// attendance engine error kinds to HTTP status codes.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/rollcall/internal/app/attendance"
	"github.com/dalemusser/rollcall/internal/app/system/limits"
	"go.uber.org/zap"
)

// errorResponse is the JSON body for every error status.
type errorResponse struct {
	Error string `json:"error"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an error response with the given status and message.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, errorResponse{Error: msg})
}

// Decode parses the request body into v. A false return means the
// response has already been written.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// EngineError maps an attendance operation error to a response. Unknown
// errors are logged and surfaced as a 500 without leaking details.
func EngineError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, attendance.ErrUnauthorized):
		Error(w, http.StatusForbidden, "admin capability required")
	case errors.Is(err, attendance.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, attendance.ErrInvalidInput):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, attendance.ErrInvalidState):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, attendance.ErrWriteConflict):
		Error(w, http.StatusConflict, "the operation could not be committed, try again")
	default:
		logger.Error("request failed", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

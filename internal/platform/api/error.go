package api

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status int, message, requestID string) {
	env := Fail(message)
	env.RequestID = requestID
	WriteJSON(w, status, env)
}

// Convenience helpers
func BadRequest(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusBadRequest, message, requestID)
}

func NotFound(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusNotFound, message, requestID)
}

func RateLimited(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusTooManyRequests, message, requestID)
}

func Unavailable(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusServiceUnavailable, message, requestID)
}

func Internal(w http.ResponseWriter, requestID string) {
	WriteError(w, http.StatusInternalServerError, "Internal server error", requestID)
}

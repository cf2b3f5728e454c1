package api

import (
	"encoding/json"
	"net/http"
)

// Error is the JSON body every failed request gets. Code is a stable
// machine-readable string; Message is for humans and may change.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInternal     = "internal_error"
	ErrCodeUnavailable  = "service_unavailable"
)

// respondJSON sends v as a JSON body under the given status. A nil v
// sends the status alone.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort; the client may already be gone
	}
}

// respondError writes a structured error response. Handlers with a
// domain-specific code (command conflicts, hardware faults) call this
// directly; everything else goes through the shorthands below.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func respondNotFound(w http.ResponseWriter, message string) {
	respondError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func respondForbidden(w http.ResponseWriter, message string) {
	respondError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func respondInternalError(w http.ResponseWriter, message string) {
	respondError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

func respondUnavailable(w http.ResponseWriter, message string) {
	respondError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

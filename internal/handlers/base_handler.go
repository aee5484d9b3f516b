package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondMessage sends a {"message": ...} JSON response
func (h *BaseHandler) respondMessage(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"message": message})
}

// decodeBody decodes the JSON request body into dst.
// On failure it responds with 400 and reports false.
func (h *BaseHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Error("failed to decode request body", zap.Error(err))
		h.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// statusForError maps a service error to its HTTP status code.
// Duplicate keys get 409 for creates and updates alike; validation, not-found
// and guard violations get 400; wrapped store failures get 500.
func statusForError(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already exist"):
		return http.StatusConflict
	case strings.HasPrefix(msg, "failed to"):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// ABOUTME: JSON error responses and domain-error to HTTP status mapping
// ABOUTME: All API errors share the {"error": {"code", "message"}} body shape

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/ai"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/conversation"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/livekit"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// Error codes returned in API error bodies.
const (
	codeInvalidInput  = "invalid_input"
	codeNotFound      = "not_found"
	codeConflict      = "conflict"
	codeRateLimited   = "rate_limited"
	codeNotConfigured = "not_configured"
	codeUpstream      = "upstream_error"
	codeInternal      = "internal"
)

// errorBody is the JSON envelope for all error responses.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response with an explicit code and message.
func (g *Gateway) writeError(w http.ResponseWriter, status int, code, message string) {
	g.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeDomainError maps domain sentinel errors onto HTTP statuses and error
// codes. Unknown errors become a generic 500 with the detail logged, never
// leaked to the client.
func (g *Gateway) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		g.writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateEmail):
		g.writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, conversation.ErrSessionEnded):
		g.writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, store.ErrInvalidTransition):
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, conversation.ErrInvalidInput):
		g.writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, livekit.ErrNotConfigured), errors.Is(err, ai.ErrNotConfigured):
		g.writeError(w, http.StatusInternalServerError, codeNotConfigured, err.Error())
	default:
		g.logger.Error("internal error", "error", err)
		g.writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

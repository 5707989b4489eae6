// ABOUTME: Server-Sent Events stream of session events for non-WebSocket clients
// ABOUTME: Delivers the same new_message and entities_updated events as /ws

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleSessionEvents handles GET /api/sessions/{id}/events.
// Streams session events as SSE until the client disconnects. There is no
// replay: only events published after the subscription are delivered.
func (g *Gateway) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, _, err := g.conversation.GetSession(r.Context(), sessionID)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		g.logger.Error("streaming not supported")
		g.writeError(w, http.StatusInternalServerError, codeInternal, "streaming not supported")
		return
	}

	events, _ := g.broadcaster.Subscribe(r.Context(), session.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	g.writeSSEEvent(w, "connected", map[string]string{"session_id": session.ID})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			g.writeSSEEvent(w, event.Type, eventToWire(event))
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a single SSE event to the response writer.
func (g *Gateway) writeSSEEvent(w http.ResponseWriter, event string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		g.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

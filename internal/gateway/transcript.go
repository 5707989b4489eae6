// ABOUTME: Session transcript rendering as HTML via markdown
// ABOUTME: Builds a markdown document from message history and converts it with goldmark

package gateway

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// handleTranscript handles GET /api/sessions/{id}/transcript.
// Returns the session's message history rendered as HTML.
func (g *Gateway) handleTranscript(w http.ResponseWriter, r *http.Request) {
	session, messages, err := g.conversation.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}

	source := transcriptMarkdown(session, messages)

	var buf strings.Builder
	if err := g.markdown.Convert([]byte(source), &buf); err != nil {
		g.logger.Error("failed to render transcript", "error", err, "session_id", session.ID)
		g.writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(buf.String()))
}

// transcriptMarkdown builds the markdown source for a session transcript.
func transcriptMarkdown(session *store.Session, messages []*store.Message) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Session Transcript\n\n")
	fmt.Fprintf(&b, "- Session: %s\n", session.ID)
	fmt.Fprintf(&b, "- Status: %s\n", session.Status)
	fmt.Fprintf(&b, "- Started: %s\n", session.StartTime.Format(time.RFC3339))
	if session.EndTime != nil {
		fmt.Fprintf(&b, "- Ended: %s\n", session.EndTime.Format(time.RFC3339))
	}
	b.WriteString("\n")

	if len(messages) == 0 {
		b.WriteString("_No messages._\n")
		return b.String()
	}

	for _, msg := range messages {
		sender := msg.Sender
		if msg.Kind == store.MessageKindAgent {
			sender = "Agent"
		}
		fmt.Fprintf(&b, "**%s** (%s):\n\n%s\n\n", sender, msg.CreatedAt.Format("15:04:05"), msg.Content)
	}

	return b.String()
}

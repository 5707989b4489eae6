// ABOUTME: WebSocket endpoint for realtime session events and voice messages
// ABOUTME: Each connection joins at most one session and receives its event stream

package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/conversation"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/extract"
)

// Client-to-server message types.
const (
	msgJoinSession  = "join_session"
	msgLeaveSession = "leave_session"
	msgVoiceMessage = "voice_message"
)

// Server-to-client message types, beyond the broadcaster event types.
const (
	msgSessionMessages = "session_messages"
	msgError           = "error"
)

// socketWriteTimeout bounds a single frame write.
const socketWriteTimeout = 10 * time.Second

// outgoingBufferSize is the per-connection send queue depth. A client that
// cannot drain the queue loses events rather than blocking the broadcaster.
const outgoingBufferSize = 64

// clientEnvelope is a JSON message from a WebSocket client.
type clientEnvelope struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// serverEvent is a JSON message pushed to a WebSocket client.
type serverEvent struct {
	Type          string            `json:"type"`
	SessionID     string            `json:"session_id,omitempty"`
	Messages      []MessageResponse `json:"messages,omitempty"`
	Message       *MessageResponse  `json:"message,omitempty"`
	Entities      []extract.Entity  `json:"entities,omitempty"`
	Transcription string            `json:"transcription,omitempty"`
}

// errorEvent is the error envelope pushed to a WebSocket client.
type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleWebSocket handles /ws connections.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if frontend := g.config.Server.FrontendURL; frontend != "" {
		if u, err := url.Parse(frontend); err == nil && u.Host != "" {
			opts.OriginPatterns = []string{u.Host}
		}
	} else {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		g.logger.Warn("websocket accept failed", "error", err)
		return
	}

	client := &socketClient{
		gateway:  g,
		conn:     conn,
		outgoing: make(chan any, outgoingBufferSize),
		logger:   g.logger.With("remote", r.RemoteAddr),
	}
	client.run(r.Context())
}

// socketClient is the per-connection state for one WebSocket client.
// sessionID and leave are only touched from the read loop.
type socketClient struct {
	gateway  *Gateway
	conn     *websocket.Conn
	outgoing chan any
	logger   *slog.Logger

	sessionID string
	leave     context.CancelFunc
}

// run drives the connection until the client disconnects or the request
// context is canceled.
func (c *socketClient) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	go c.writePump(ctx)

	for {
		var env clientEnvelope
		if err := wsjson.Read(ctx, c.conn, &env); err != nil {
			return
		}
		c.handle(ctx, &env)
	}
}

// writePump serializes all outbound frames for this connection.
func (c *socketClient) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.outgoing:
			wctx, cancel := context.WithTimeout(ctx, socketWriteTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// send queues a message for delivery, dropping it if the queue is full.
func (c *socketClient) send(msg any) {
	select {
	case c.outgoing <- msg:
	default:
		c.logger.Warn("dropping event for slow websocket client")
	}
}

func (c *socketClient) sendError(message string) {
	c.send(errorEvent{Type: msgError, Message: message})
}

// handle dispatches one client envelope.
func (c *socketClient) handle(ctx context.Context, env *clientEnvelope) {
	switch env.Type {
	case msgJoinSession:
		c.joinSession(ctx, env.SessionID)
	case msgLeaveSession:
		c.leaveSession()
	case msgVoiceMessage:
		c.voiceMessage(ctx, env)
	default:
		c.sendError("unknown message type: " + env.Type)
	}
}

// joinSession subscribes the connection to a session's event stream and sends
// the message backlog. Joining an unknown session leaves the current join
// untouched.
func (c *socketClient) joinSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		c.sendError("session_id is required")
		return
	}

	session, messages, err := c.gateway.conversation.GetSession(ctx, sessionID)
	if err != nil {
		c.sendError("session not found")
		return
	}

	// Switching sessions drops the previous subscription first.
	c.leaveSession()

	subCtx, cancel := context.WithCancel(ctx)
	events, _ := c.gateway.broadcaster.Subscribe(subCtx, session.ID)
	c.sessionID = session.ID
	c.leave = cancel

	go c.forward(events)

	c.send(serverEvent{
		Type:      msgSessionMessages,
		SessionID: session.ID,
		Messages:  messageResponses(messages),
	})
}

// leaveSession drops the current subscription, if any.
func (c *socketClient) leaveSession() {
	if c.leave != nil {
		c.leave()
		c.leave = nil
		c.sessionID = ""
	}
}

// voiceMessage runs the message pipeline for the joined session. Resulting
// events arrive through the broadcaster subscription rather than as a direct
// reply.
func (c *socketClient) voiceMessage(ctx context.Context, env *clientEnvelope) {
	if c.sessionID == "" {
		c.sendError("not joined to a session")
		return
	}
	if env.UserID == "" {
		c.sendError("user_id is required")
		return
	}

	if _, err := c.gateway.conversation.HandleIncomingMessage(ctx, c.sessionID, env.UserID, env.Content); err != nil {
		c.sendError(err.Error())
	}
}

// forward relays broadcaster events to the client until the subscription
// channel closes.
func (c *socketClient) forward(events <-chan *conversation.Event) {
	for event := range events {
		c.send(eventToWire(event))
	}
}

// eventToWire converts a broadcaster event to its JSON wire form.
func eventToWire(event *conversation.Event) serverEvent {
	wire := serverEvent{
		Type:          event.Type,
		SessionID:     event.SessionID,
		Entities:      event.Entities,
		Transcription: event.Transcription,
	}
	if event.Message != nil {
		msg := messageResponse(event.Message)
		wire.Message = &msg
	}
	return wire
}

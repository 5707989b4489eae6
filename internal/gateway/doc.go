// Package gateway orchestrates the voice-agent server components.
//
// # Overview
//
// The gateway package is the central coordinator of the voice-agent server.
// It owns and manages all major components: HTTP server, SQLite store, AI
// backend, memory service, conversation service, and LiveKit token issuer.
//
// # Gateway Struct
//
// The Gateway struct is the main entry point:
//
//	type Gateway struct {
//	    config       *config.Config
//	    store        store.Store
//	    backend      ai.Backend
//	    memories     *memory.Service
//	    conversation *conversation.Service
//	    broadcaster  *conversation.Broadcaster
//	    tokens       *livekit.TokenIssuer
//	    httpServer   *http.Server
//	    // ... and more
//	}
//
// # HTTP API
//
// The gateway exposes HTTP endpoints in api.go:
//
//   - POST /api/users - Register a user
//   - POST /api/sessions - Start a conversation session
//   - POST /api/sessions/{id}/end|pause|resume - Session lifecycle
//   - GET /api/sessions/{id}/transcript - HTML transcript
//   - POST /api/messages - Run the message pipeline
//   - GET /api/memories - Search stored memories
//   - POST /api/livekit/token - Mint a room access token
//   - GET /api/ai/status - AI backend readiness
//   - GET /health - Liveness check with store stats
//
// All API responses are JSON; errors use the shared envelope:
//
//	{"error": {"code": "not_found", "message": "..."}}
//
// # Realtime
//
// WebSocket clients connect to /ws and exchange JSON envelopes. A connection
// joins at most one session:
//
//	-> {"type": "join_session", "session_id": "..."}
//	<- {"type": "session_messages", "messages": [...]}
//	-> {"type": "voice_message", "user_id": "...", "content": "..."}
//	<- {"type": "new_message", "message": {...}}
//	<- {"type": "entities_updated", "entities": [...], "transcription": "..."}
//
// The same events are available as Server-Sent Events at
// GET /api/sessions/{id}/events for clients that cannot hold a WebSocket.
//
// # Rate Limiting
//
// HTTP API ingress is rate limited per client IP with a token bucket.
// Exceeding the limit yields 429 with the standard error envelope. The
// WebSocket endpoint is exempt: one long-lived connection is one request.
//
// # Lifecycle
//
// Start the gateway:
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	go gw.Run(ctx)
//
// Graceful shutdown:
//
//	cancel()
//
// Run also drives the session cleanup loop, ending sessions that have been
// active longer than the configured timeout.
//
// # Key Files
//
//   - gateway.go: Gateway struct, initialization, Run/Shutdown
//   - api.go: HTTP handlers and JSON types
//   - socket.go: WebSocket protocol
//   - sse.go: Server-Sent Events stream
//   - transcript.go: HTML transcript rendering
//   - ratelimit.go: Per-IP token buckets
//   - errors.go: Error taxonomy mapping
package gateway

// Package conversation provides the message orchestrator and session
// event broadcasting.
//
// # Service
//
// The Service coordinates everything that happens to one inbound message:
//
//	svc := conversation.NewService(store, backend, memories, broadcaster, logger)
//
// Key operations:
//
//   - HandleIncomingMessage(ctx, sessionID, userID, content): validate,
//     persist, enrich, broadcast
//   - StartSession / EndSession / PauseSession / ResumeSession: lifecycle
//     transitions with validation
//   - RunCleanup(ctx, olderThan): end stale active sessions on a timer
//
// # Message Flow
//
// When a message arrives:
//
//  1. Validate content length and session state
//  2. Record the user message (history is the source of truth)
//  3. Broadcast new_message to clients joined to the session
//  4. Run extraction and write memory records (best-effort)
//  5. Broadcast entities_updated
//  6. Ask the hosted agent for a reply when one is configured
//
// Enrichment failures never fail the message: they surface on
// Result.EnrichmentErr with empty entity/memory lists, and callers choose
// whether to expose the partial failure.
//
// # Event Broadcasting
//
// The Broadcaster is in-memory pub/sub keyed by session ID:
//
//	ch, subID := broadcaster.Subscribe(ctx, sessionID)
//
// Events are new_message and entities_updated. Delivery is best-effort with
// per-subscriber buffering; slow subscribers drop events rather than blocking
// publishers, and there is no replay for late joiners.
package conversation

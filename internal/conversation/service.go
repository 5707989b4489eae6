// ABOUTME: Orchestrator sequencing store writes, extraction, and broadcast per message
// ABOUTME: Also owns session lifecycle transitions and the expiry cleanup pass

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/ai"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/extract"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/memory"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// MaxMessageLength bounds inbound message content. Longer payloads are
// rejected before any store write or extraction.
const MaxMessageLength = 4096

// ErrInvalidInput is returned for empty or over-length message content.
var ErrInvalidInput = errors.New("invalid input")

// ErrSessionEnded is returned when a message targets an ended session.
var ErrSessionEnded = errors.New("session has ended")

// Service is the conversation orchestrator. All inbound messages flow through
// HandleIncomingMessage regardless of transport (HTTP or WebSocket).
type Service struct {
	store       store.Store
	backend     ai.Backend
	memories    *memory.Service
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewService creates the orchestrator. All dependencies are injected; the
// service holds no global state.
func NewService(s store.Store, backend ai.Backend, memories *memory.Service, broadcaster *Broadcaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       s,
		backend:     backend,
		memories:    memories,
		broadcaster: broadcaster,
		logger:      logger.With("component", "conversation"),
	}
}

// Broadcaster exposes the session event channel for realtime transports.
func (s *Service) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Result is the outcome of handling one inbound message. EnrichmentErr is
// non-nil when extraction or memory storage failed; the message write and
// broadcast still succeeded in that case and Entities/Memories are empty.
// Callers decide whether to surface the partial failure.
type Result struct {
	Message       *store.Message
	AgentMessage  *store.Message // nil when no agent reply was produced
	Entities      []extract.Entity
	Memories      []*store.Memory
	EnrichmentErr error
}

// HandleIncomingMessage validates, persists, enriches, and broadcasts one
// user message.
//
// Key principle: record first, then enrich. The message write is the only
// step that can fail the call after validation; extraction and memory writes
// are best-effort and reported via Result.EnrichmentErr.
func (s *Service) HandleIncomingMessage(ctx context.Context, sessionID, userID, content string) (*Result, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}
	if len(content) > MaxMessageLength {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrInvalidInput, MaxMessageLength)
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Active() {
		return nil, ErrSessionEnded
	}

	// 1. Record the user message FIRST: history is the source of truth
	msg := &store.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Sender:    userID,
		Kind:      store.MessageKindUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("recording message: %w", err)
	}

	s.logger.Debug("user message recorded",
		"session_id", sessionID,
		"message_id", msg.ID,
		"sender", userID)

	// 2. Broadcast the message to joined clients
	s.broadcaster.Publish(&Event{
		Type:      EventNewMessage,
		SessionID: sessionID,
		Message:   msg,
	})

	result := &Result{Message: msg}

	// 3. Enrich: extraction then memory writes, best-effort
	if err := s.enrich(ctx, session.UserID, msg, result); err != nil {
		s.logger.Warn("enrichment failed",
			"session_id", sessionID,
			"message_id", msg.ID,
			"error", err)
		result.EnrichmentErr = err
		result.Entities = nil
		result.Memories = nil
	}

	// 4. Agent reply, only when a hosted agent is configured
	if s.backend.Ready() {
		result.AgentMessage = s.agentReply(ctx, sessionID, userID, content)
	}

	s.recordAnalytics(ctx, sessionID, len(result.Entities))
	return result, nil
}

// enrich runs extraction and memory storage for a persisted message and
// publishes the entity update.
func (s *Service) enrich(ctx context.Context, ownerID string, msg *store.Message, result *Result) error {
	res, err := s.backend.Extract(ctx, msg.Content)
	if err != nil {
		return fmt.Errorf("extracting entities: %w", err)
	}

	memories, err := s.memories.RecordExtraction(ctx, ownerID, msg.SessionID, msg.ID, msg.Content, res)
	if err != nil {
		return fmt.Errorf("storing memories: %w", err)
	}

	result.Entities = res.Entities
	result.Memories = memories

	s.broadcaster.Publish(&Event{
		Type:          EventEntitiesUpdated,
		SessionID:     msg.SessionID,
		Entities:      res.Entities,
		Transcription: msg.Content,
	})
	return nil
}

// agentReply asks the backend for a response, persists and broadcasts it.
// Failures are logged and swallowed: a missing reply never fails the inbound
// message.
func (s *Service) agentReply(ctx context.Context, sessionID, userID, content string) *store.Message {
	reply, err := s.backend.Reply(ctx, sessionID, userID, content)
	if err != nil {
		s.logger.Warn("agent reply failed", "session_id", sessionID, "error", err)
		return nil
	}

	confidence := reply.Confidence
	agentMsg := &store.Message{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Sender:     store.AgentSender,
		Kind:       store.MessageKindAgent,
		Content:    reply.Content,
		Confidence: &confidence,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, agentMsg); err != nil {
		s.logger.Error("recording agent reply failed", "session_id", sessionID, "error", err)
		return nil
	}

	s.broadcaster.Publish(&Event{
		Type:      EventNewMessage,
		SessionID: sessionID,
		Message:   agentMsg,
	})
	return agentMsg
}

// StartSession creates a new active session for a user.
func (s *Service) StartSession(ctx context.Context, userID string, metadata map[string]any) (*store.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &store.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    store.SessionStatusActive,
		StartTime: now,
		Metadata:  metadata,
		UpdatedAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Info("session started", "session_id", session.ID, "user_id", userID)
	return session, nil
}

// GetSession returns a session together with its message backlog.
func (s *Service) GetSession(ctx context.Context, id string) (*store.Session, []*store.Message, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.store.GetMessagesBySession(ctx, id, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("loading messages: %w", err)
	}
	return session, messages, nil
}

// ListSessions returns all sessions for a user, newest first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]*store.Session, error) {
	return s.store.ListSessionsByUser(ctx, userID)
}

// EndSession transitions a session to ended, setting its end time.
func (s *Service) EndSession(ctx context.Context, id string) (*store.Session, error) {
	return s.transition(ctx, id, store.SessionStatusEnded)
}

// PauseSession transitions an active session to paused.
func (s *Service) PauseSession(ctx context.Context, id string) (*store.Session, error) {
	return s.transition(ctx, id, store.SessionStatusPaused)
}

// ResumeSession transitions a paused session back to active.
func (s *Service) ResumeSession(ctx context.Context, id string) (*store.Session, error) {
	return s.transition(ctx, id, store.SessionStatusActive)
}

func (s *Service) transition(ctx context.Context, id, to string) (*store.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, session.Status, to)
	}

	var endTime *time.Time
	if to == store.SessionStatusEnded {
		now := time.Now().UTC()
		endTime = &now
	}
	if err := s.store.UpdateSessionStatus(ctx, id, to, endTime); err != nil {
		return nil, err
	}

	s.logger.Info("session transitioned", "session_id", id, "from", session.Status, "to", to)
	return s.store.GetSession(ctx, id)
}

// RunCleanup ends stale active sessions and records the pass. Invoked on a
// fixed timer, never on demand.
func (s *Service) RunCleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	count, err := s.store.CleanupExpiredSessions(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.recordCleanup(ctx, count)
	}
	return count, nil
}

func (s *Service) recordAnalytics(ctx context.Context, sessionID string, entities int) {
	event := &store.AnalyticsEvent{
		ID:        uuid.New().String(),
		Kind:      "message_handled",
		SessionID: sessionID,
		Payload:   map[string]any{"entities": entities},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.RecordAnalytics(ctx, event); err != nil {
		s.logger.Warn("recording analytics failed", "error", err)
	}
}

func (s *Service) recordCleanup(ctx context.Context, count int) {
	event := &store.AnalyticsEvent{
		ID:        uuid.New().String(),
		Kind:      "sessions_cleaned",
		Payload:   map[string]any{"count": count},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.RecordAnalytics(ctx, event); err != nil {
		s.logger.Warn("recording analytics failed", "error", err)
	}
}

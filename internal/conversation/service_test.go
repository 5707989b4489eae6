// ABOUTME: Tests for the conversation orchestrator
// ABOUTME: Covers validation, persistence order, enrichment, lifecycle, and cleanup

package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/ai"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/extract"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/memory"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// replyBackend is a configured backend with canned replies for testing the
// agent message path.
type replyBackend struct {
	reply string
	err   error
}

func (b *replyBackend) Extract(_ context.Context, text string) (*extract.Result, error) {
	return extract.Extract(text), nil
}

func (b *replyBackend) Reply(_ context.Context, _, _, _ string) (*ai.Reply, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &ai.Reply{Content: b.reply, Confidence: 0.9}, nil
}

func (b *replyBackend) Ready() bool { return true }

// failingBackend errors on extraction to exercise the enrichment failure path.
type failingBackend struct{}

func (failingBackend) Extract(_ context.Context, _ string) (*extract.Result, error) {
	return nil, errors.New("extraction exploded")
}

func (failingBackend) Reply(_ context.Context, _, _, _ string) (*ai.Reply, error) {
	return nil, ai.ErrNotConfigured
}

func (failingBackend) Ready() bool { return false }

func newTestService(t *testing.T, backend ai.Backend) (*Service, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	if backend == nil {
		backend = ai.NewBackend(ai.Options{})
	}
	memories := memory.NewService(s, nil, nil)
	svc := NewService(s, backend, memories, NewBroadcaster(nil), nil)

	user := &store.User{ID: "user-1", Name: "Test", Email: "test@example.com", CreatedAt: time.Now()}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return svc, s
}

func startSession(t *testing.T, svc *Service) *store.Session {
	t.Helper()
	session, err := svc.StartSession(context.Background(), "user-1", map[string]any{"room": "demo"})
	require.NoError(t, err)
	return session
}

func TestHandleIncomingMessage(t *testing.T) {
	svc, s := newTestService(t, nil)
	session := startSession(t, svc)
	ctx := context.Background()

	result, err := svc.HandleIncomingMessage(ctx, session.ID, "user-1", "Contact me at a@b.com")
	require.NoError(t, err)
	require.NoError(t, result.EnrichmentErr)

	assert.Equal(t, store.MessageKindUser, result.Message.Kind)
	assert.Equal(t, "user-1", result.Message.Sender)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, extract.EntityEmail, result.Entities[0].Type)
	// One entity memory plus the conversation memory
	assert.Len(t, result.Memories, 2)
	// Pattern backend produces no agent reply
	assert.Nil(t, result.AgentMessage)

	// Message persisted
	msgs, err := s.GetMessagesBySession(ctx, session.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Contact me at a@b.com", msgs[0].Content)
}

func TestHandleIncomingMessage_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	session := startSession(t, svc)
	ctx := context.Background()

	_, err := svc.HandleIncomingMessage(ctx, session.ID, "user-1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	long := strings.Repeat("x", MaxMessageLength+1)
	_, err = svc.HandleIncomingMessage(ctx, session.ID, "user-1", long)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.HandleIncomingMessage(ctx, "missing-session", "user-1", "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandleIncomingMessage_OverLengthWritesNothing(t *testing.T) {
	svc, s := newTestService(t, nil)
	session := startSession(t, svc)
	ctx := context.Background()

	long := strings.Repeat("a@b.com ", MaxMessageLength/4)
	_, err := svc.HandleIncomingMessage(ctx, session.ID, "user-1", long)
	require.ErrorIs(t, err, ErrInvalidInput)

	// Short-circuits before any write: no messages, no memories
	msgs, err := s.GetMessagesBySession(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	memories, err := s.SearchMemories(ctx, store.MemoryQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestHandleIncomingMessage_EndedSession(t *testing.T) {
	svc, _ := newTestService(t, nil)
	session := startSession(t, svc)
	ctx := context.Background()

	_, err := svc.EndSession(ctx, session.ID)
	require.NoError(t, err)

	_, err = svc.HandleIncomingMessage(ctx, session.ID, "user-1", "hello")
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestHandleIncomingMessage_EnrichmentFailureIsPartial(t *testing.T) {
	svc, s := newTestService(t, failingBackend{})
	session := startSession(t, svc)
	ctx := context.Background()

	result, err := svc.HandleIncomingMessage(ctx, session.ID, "user-1", "hello there")
	require.NoError(t, err)

	// Message write succeeded, enrichment reported as failed with empty lists
	assert.Error(t, result.EnrichmentErr)
	assert.Empty(t, result.Entities)
	assert.Empty(t, result.Memories)

	msgs, err := s.GetMessagesBySession(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestHandleIncomingMessage_AgentReply(t *testing.T) {
	svc, s := newTestService(t, &replyBackend{reply: "Happy to help."})
	session := startSession(t, svc)
	ctx := context.Background()

	result, err := svc.HandleIncomingMessage(ctx, session.ID, "user-1", "help me please")
	require.NoError(t, err)

	require.NotNil(t, result.AgentMessage)
	assert.Equal(t, store.MessageKindAgent, result.AgentMessage.Kind)
	assert.Equal(t, store.AgentSender, result.AgentMessage.Sender)
	require.NotNil(t, result.AgentMessage.Confidence)
	assert.Equal(t, 0.9, *result.AgentMessage.Confidence)

	// Both user and agent messages persisted, user message first
	msgs, err := s.GetMessagesBySession(ctx, session.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, store.MessageKindUser, msgs[0].Kind)
	assert.Equal(t, store.MessageKindAgent, msgs[1].Kind)
}

func TestHandleIncomingMessage_AgentReplyFailureSwallowed(t *testing.T) {
	svc, _ := newTestService(t, &replyBackend{err: errors.New("agent down")})
	session := startSession(t, svc)

	result, err := svc.HandleIncomingMessage(context.Background(), session.ID, "user-1", "hello")
	require.NoError(t, err)
	assert.Nil(t, result.AgentMessage)
}

func TestHandleIncomingMessage_BroadcastsEvents(t *testing.T) {
	svc, _ := newTestService(t, nil)
	session := startSession(t, svc)
	ctx := context.Background()

	ch, _ := svc.Broadcaster().Subscribe(t.Context(), session.ID)

	_, err := svc.HandleIncomingMessage(ctx, session.ID, "user-1", "mail a@b.com")
	require.NoError(t, err)

	var types []string
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			types = append(types, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}
	assert.Equal(t, []string{EventNewMessage, EventEntitiesUpdated}, types)
}

func TestSessionLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	session := startSession(t, svc)
	assert.Equal(t, store.SessionStatusActive, session.Status)
	assert.Nil(t, session.EndTime)

	paused, err := svc.PauseSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, store.SessionStatusPaused, paused.Status)

	resumed, err := svc.ResumeSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, store.SessionStatusActive, resumed.Status)

	ended, err := svc.EndSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, store.SessionStatusEnded, ended.Status)
	assert.NotNil(t, ended.EndTime)

	// Terminal: no transitions out of ended
	_, err = svc.ResumeSession(ctx, session.ID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
	_, err = svc.EndSession(ctx, session.ID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestStartSession_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.StartSession(context.Background(), "nobody", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunCleanup(t *testing.T) {
	svc, s := newTestService(t, nil)
	ctx := context.Background()

	// Backdate a session past the timeout window
	stale := time.Now().UTC().Add(-time.Hour)
	session := &store.Session{
		ID: "stale", UserID: "user-1", Status: store.SessionStatusActive,
		StartTime: stale, UpdatedAt: stale,
	}
	require.NoError(t, s.CreateSession(ctx, session))
	startSession(t, svc) // fresh session survives

	count, err := svc.RunCleanup(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, store.SessionStatusEnded, got.Status)
	assert.NotNil(t, got.EndTime)
}

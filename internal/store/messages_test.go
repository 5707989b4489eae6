// ABOUTME: Tests for message persistence
// ABOUTME: Covers ordering guarantees, limits, and metadata round-trips

package store

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func createTestSession(t *testing.T, s *SQLiteStore, id, userID string) {
	t.Helper()
	session := &Session{
		ID:        id,
		UserID:    userID,
		Status:    SessionStatusActive,
		StartTime: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
}

func TestSaveAndGetMessages_Ordering(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	createTestUser(t, s, "user-1")
	createTestSession(t, s, "sess-1", "user-1")

	base := time.Now().UTC().Truncate(time.Second)
	// Insert out of chronological order; two messages share a timestamp
	inserts := []struct {
		id     string
		offset time.Duration
	}{
		{"msg-c", 2 * time.Second},
		{"msg-a", 0},
		{"msg-b", time.Second},
		{"msg-b2", time.Second},
	}
	for _, in := range inserts {
		msg := &Message{
			ID:        in.id,
			SessionID: "sess-1",
			Sender:    "user-1",
			Kind:      MessageKindUser,
			Content:   "content " + in.id,
			CreatedAt: base.Add(in.offset),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage(%s) failed: %v", in.id, err)
		}
	}

	msgs, err := s.GetMessagesBySession(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("GetMessagesBySession failed: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}

	// Non-decreasing timestamps
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Errorf("message %d timestamp %v before previous %v",
				i, msgs[i].CreatedAt, msgs[i-1].CreatedAt)
		}
	}
	if msgs[0].ID != "msg-a" {
		t.Errorf("first message = %s, want msg-a", msgs[0].ID)
	}
	if msgs[3].ID != "msg-c" {
		t.Errorf("last message = %s, want msg-c", msgs[3].ID)
	}
	// Equal timestamps keep insertion order
	if msgs[1].ID != "msg-b" || msgs[2].ID != "msg-b2" {
		t.Errorf("tied messages = %s, %s, want msg-b, msg-b2", msgs[1].ID, msgs[2].ID)
	}
}

func TestGetMessagesBySession_Limit(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	createTestUser(t, s, "user-1")
	createTestSession(t, s, "sess-1", "user-1")

	for i := 0; i < 5; i++ {
		msg := &Message{
			ID:        fmt.Sprintf("msg-%d", i),
			SessionID: "sess-1",
			Sender:    "user-1",
			Kind:      MessageKindUser,
			Content:   "hello",
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	msgs, err := s.GetMessagesBySession(ctx, "sess-1", 3)
	if err != nil {
		t.Fatalf("GetMessagesBySession failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Errorf("got %d messages, want 3", len(msgs))
	}
}

func TestSaveMessage_AgentConfidence(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	createTestUser(t, s, "user-1")
	createTestSession(t, s, "sess-1", "user-1")

	conf := 0.92
	msg := &Message{
		ID:         "msg-agent",
		SessionID:  "sess-1",
		Sender:     AgentSender,
		Kind:       MessageKindAgent,
		Content:    "I can help with that.",
		Confidence: &conf,
		Metadata:   map[string]any{"model": "mastra"},
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	msgs, err := s.GetMessagesBySession(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("GetMessagesBySession failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	got := msgs[0]
	if got.Kind != MessageKindAgent {
		t.Errorf("Kind = %q, want agent", got.Kind)
	}
	if got.Confidence == nil || *got.Confidence != 0.92 {
		t.Errorf("Confidence = %v, want 0.92", got.Confidence)
	}
	if got.Metadata["model"] != "mastra" {
		t.Errorf("Metadata[model] = %v, want mastra", got.Metadata["model"])
	}
}

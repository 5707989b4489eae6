// ABOUTME: Store interface and data types for voice-agent persistence
// ABOUTME: Defines User, Session, Message, Memory records and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when creating a user with an email that is already registered
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidTransition is returned when a session status change is not allowed
// from the session's current status
var ErrInvalidTransition = errors.New("invalid session transition")

// Session status constants
const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
	SessionStatusPaused = "paused"
)

// Message kind constants
const (
	MessageKindUser  = "user"
	MessageKindAgent = "agent"
)

// AgentSender is the sender value recorded for agent-authored messages.
const AgentSender = "agent"

// Memory type constants
const (
	MemoryTypeConversation = "conversation"
	MemoryTypeFact         = "fact"
	MemoryTypePreference   = "preference"
	MemoryTypeIntent       = "intent"
	MemoryTypeEmotion      = "emotion"
	MemoryTypeContext      = "context"
	MemoryTypeRelationship = "relationship"
	MemoryTypeCustom       = "custom"
)

// User is a registered participant. Email is unique across users.
type User struct {
	ID          string
	Name        string
	Email       string
	Preferences map[string]any
	CreatedAt   time.Time
}

// Session is a bounded conversation between one user and the agent.
// Invariant: EndTime is set if and only if Status is "ended".
type Session struct {
	ID        string
	UserID    string
	Status    string
	StartTime time.Time
	EndTime   *time.Time
	Metadata  map[string]any
	UpdatedAt time.Time
}

// Active reports whether the session still accepts messages.
func (s *Session) Active() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusPaused
}

// CanTransition reports whether the session may move to the given status.
// Valid transitions: active→ended, active→paused, paused→active, paused→ended.
// An ended session is terminal.
func (s *Session) CanTransition(to string) bool {
	switch s.Status {
	case SessionStatusActive:
		return to == SessionStatusEnded || to == SessionStatusPaused
	case SessionStatusPaused:
		return to == SessionStatusActive || to == SessionStatusEnded
	default:
		return false
	}
}

// Message is a single utterance within a session. Append-only; readers observe
// messages in non-decreasing CreatedAt order.
type Message struct {
	ID         string
	SessionID  string
	Sender     string // user ID, or AgentSender for agent replies
	Kind       string // MessageKindUser or MessageKindAgent
	Content    string
	Confidence *float64 // agent messages only
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Memory is a persisted, taggable record derived from a message or entity.
// Content, UserID, SessionID, MessageID and EntityValues are immutable once
// stored; Importance and Tags may be updated.
type Memory struct {
	ID           string
	Type         string
	Content      string
	UserID       string
	SessionID    string // optional
	MessageID    string // optional
	EntityValues []string
	Importance   float64
	Tags         []string
	CreatedAt    time.Time
}

// MemoryQuery filters memory searches. Zero-value fields are ignored.
type MemoryQuery struct {
	UserID    string
	SessionID string
	Text      string // substring match on content
	Limit     int
}

// AnalyticsEvent is a coarse operational counter (request served, cleanup pass,
// token issued). Payload holds event-specific details.
type AnalyticsEvent struct {
	ID        string
	Kind      string
	SessionID string // optional
	Payload   map[string]any
	CreatedAt time.Time
}

// Stats holds row counts per table, reported by the health endpoint.
type Stats struct {
	Users     int `json:"users"`
	Sessions  int `json:"sessions"`
	Messages  int `json:"messages"`
	Memories  int `json:"memories"`
	Analytics int `json:"analytics"`
}

// Store defines the persistence operations used by the rest of the service
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserPreferences(ctx context.Context, id string, prefs map[string]any) error

	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSessionStatus(ctx context.Context, id, status string, endTime *time.Time) error
	ListSessionsByUser(ctx context.Context, userID string) ([]*Session, error)
	CleanupExpiredSessions(ctx context.Context, olderThan time.Duration) (int, error)
	DeleteSession(ctx context.Context, id string) error

	// Messages
	SaveMessage(ctx context.Context, msg *Message) error
	GetMessagesBySession(ctx context.Context, sessionID string, limit int) ([]*Message, error)

	// Memories
	SaveMemory(ctx context.Context, mem *Memory) error
	GetMemory(ctx context.Context, id string) (*Memory, error)
	UpdateMemoryImportance(ctx context.Context, id string, importance float64, tags []string) error
	SearchMemories(ctx context.Context, q MemoryQuery) ([]*Memory, error)

	// Analytics
	RecordAnalytics(ctx context.Context, event *AnalyticsEvent) error

	// Stats returns row counts for the health endpoint
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the underlying database handle
	Close() error
}

// ABOUTME: In-memory fan-out event broadcaster for realtime session updates
// ABOUTME: Publishes message and entity events to all subscribers of a session

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/extract"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// Event type constants delivered to realtime clients.
const (
	EventNewMessage      = "new_message"
	EventEntitiesUpdated = "entities_updated"
)

// Event is one realtime update on a session channel.
type Event struct {
	Type          string           `json:"type"`
	SessionID     string           `json:"session_id"`
	Message       *store.Message   `json:"message,omitempty"`
	Entities      []extract.Entity `json:"entities,omitempty"`
	Transcription string           `json:"transcription,omitempty"`
}

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Broadcaster provides in-memory pub/sub for session events. Subscribers
// register for a session ID and receive events as messages are persisted.
// There is no replay: a late subscriber sees only events published after it
// joined.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan *Event // sessionID -> subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan *Event),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for events on the given session. Returns a
// channel that receives events and a subscription ID for later unsubscription.
// The subscription is automatically cleaned up when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID string) (<-chan *Event, string) {
	subID := uuid.New().String()
	ch := make(chan *Event, subscriberBufferSize)

	b.mu.Lock()
	if _, ok := b.subscribers[sessionID]; !ok {
		b.subscribers[sessionID] = make(map[string]chan *Event)
	}
	b.subscribers[sessionID][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added",
		"session_id", sessionID,
		"sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(sessionID, subID)
	}()

	return ch, subID
}

// Publish sends an event to all subscribers of the given session.
// Non-blocking: events are dropped for subscribers whose channels are full.
// Sends happen under the read lock so Unsubscribe cannot close a channel
// mid-publish; the select/default keeps the hold time bounded.
func (b *Broadcaster) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.SessionID] {
		select {
		case ch <- event:
			// Sent
		default:
			// Subscriber channel full — drop event for this subscriber
			b.logger.Debug("dropped event for slow subscriber",
				"session_id", event.SessionID,
				"event_type", event.Type)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(sessionID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[sessionID]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	// Clean up empty session entries
	if len(subs) == 0 {
		delete(b.subscribers, sessionID)
	}

	b.logger.Debug("subscriber removed",
		"session_id", sessionID,
		"sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sessionID, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, sessionID)
	}

	b.logger.Debug("broadcaster closed")
}

// ABOUTME: Memory service converting extraction output into persisted memory records
// ABOUTME: Local store is the source of truth; mem0 mirroring is best-effort

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/extract"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// Importance assigned to the conversation-level memory created per message.
// Entity memories inherit the entity's confidence instead.
const conversationImportance = 0.5

// Service persists memories derived from messages and extracted entities.
type Service struct {
	store  store.Store
	mem0   *Mem0Client // nil when mirroring is disabled
	logger *slog.Logger
}

// NewService creates a memory service. mem0 may be nil.
func NewService(s store.Store, mem0 *Mem0Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		mem0:   mem0,
		logger: logger.With("component", "memory"),
	}
}

// Ready reports whether the hosted mem0 mirror is configured.
func (s *Service) Ready() bool {
	return s.mem0 != nil
}

// RecordExtraction stores one memory per extracted entity plus one
// conversation-level memory for the message itself, and returns everything
// stored. The local write is authoritative; a failed mem0 mirror is logged
// and does not fail the call.
func (s *Service) RecordExtraction(ctx context.Context, userID, sessionID, messageID, content string, res *extract.Result) ([]*store.Memory, error) {
	now := time.Now().UTC()

	memories := make([]*store.Memory, 0, len(res.Entities)+1)
	for _, entity := range res.Entities {
		memories = append(memories, &store.Memory{
			ID:           uuid.New().String(),
			Type:         memoryTypeFor(entity.Type),
			Content:      fmt.Sprintf("%s: %s", entity.Type, entity.Value),
			UserID:       userID,
			SessionID:    sessionID,
			MessageID:    messageID,
			EntityValues: []string{entity.Value},
			Importance:   entity.Confidence,
			Tags:         []string{string(entity.Type)},
			CreatedAt:    now,
		})
	}

	memories = append(memories, &store.Memory{
		ID:           uuid.New().String(),
		Type:         store.MemoryTypeConversation,
		Content:      res.Summary,
		UserID:       userID,
		SessionID:    sessionID,
		MessageID:    messageID,
		EntityValues: entityValues(res.Entities),
		Importance:   conversationImportance,
		Tags:         append([]string{res.Sentiment}, res.Topics...),
		CreatedAt:    now,
	})

	for _, mem := range memories {
		if err := s.store.SaveMemory(ctx, mem); err != nil {
			return nil, fmt.Errorf("saving memory: %w", err)
		}
		s.mirror(ctx, mem)
	}

	s.logger.Debug("extraction recorded",
		"user_id", userID,
		"session_id", sessionID,
		"memories", len(memories),
	)
	return memories, nil
}

// Search proxies to the local store. mem0 is a mirror, not a read path.
func (s *Service) Search(ctx context.Context, q store.MemoryQuery) ([]*store.Memory, error) {
	return s.store.SearchMemories(ctx, q)
}

// UpdateImportance adjusts the mutable fields of a stored memory.
func (s *Service) UpdateImportance(ctx context.Context, id string, importance float64, tags []string) error {
	if importance < 0 || importance > 1 {
		return fmt.Errorf("importance %v out of range [0,1]", importance)
	}
	return s.store.UpdateMemoryImportance(ctx, id, importance, tags)
}

func (s *Service) mirror(ctx context.Context, mem *store.Memory) {
	if s.mem0 == nil {
		return
	}
	if err := s.mem0.Add(ctx, mem); err != nil {
		s.logger.Warn("mem0 mirror failed", "memory_id", mem.ID, "error", err)
	}
}

// memoryTypeFor maps entity types onto memory types. Contact-like entities
// become facts; everything else is context.
func memoryTypeFor(t extract.EntityType) string {
	switch t {
	case extract.EntityEmail, extract.EntityPhone, extract.EntityURL,
		extract.EntityPerson, extract.EntityOrganization:
		return store.MemoryTypeFact
	default:
		return store.MemoryTypeContext
	}
}

func entityValues(entities []extract.Entity) []string {
	if len(entities) == 0 {
		return nil
	}
	vals := make([]string, len(entities))
	for i, e := range entities {
		vals[i] = e.Value
	}
	return vals
}

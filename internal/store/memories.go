// ABOUTME: SQLite operations for memory records
// ABOUTME: Immutable content with mutable importance/tags, searchable by user/session/text

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// defaultMemoryLimit caps search results when the caller does not set one.
const defaultMemoryLimit = 100

// SaveMemory inserts a memory record.
func (s *SQLiteStore) SaveMemory(ctx context.Context, mem *Memory) error {
	entities, err := encodeBlob(mem.EntityValues)
	if err != nil {
		return fmt.Errorf("encoding entities: %w", err)
	}
	tags, err := encodeBlob(mem.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	query := `
		INSERT INTO memories (id, type, content, user_id, session_id, message_id,
			entities, importance, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		mem.ID,
		mem.Type,
		mem.Content,
		mem.UserID,
		nullString(mem.SessionID),
		nullString(mem.MessageID),
		nullString(entities),
		mem.Importance,
		nullString(tags),
		mem.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting memory: %w", err)
	}

	s.logger.Debug("memory saved",
		"id", mem.ID,
		"type", mem.Type,
		"user_id", mem.UserID,
	)
	return nil
}

// GetMemory retrieves a memory by ID. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetMemory(ctx context.Context, id string) (*Memory, error) {
	query := `
		SELECT id, type, content, user_id, session_id, message_id,
			entities, importance, tags, created_at
		FROM memories WHERE id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying memory: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading memory: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanMemory(rows)
}

// UpdateMemoryImportance sets importance and tags, the only mutable memory
// fields. Content and references stay as stored.
func (s *SQLiteStore) UpdateMemoryImportance(ctx context.Context, id string, importance float64, tags []string) error {
	blob, err := encodeBlob(tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE memories SET importance = ?, tags = ? WHERE id = ?`,
		importance, nullString(blob), id)
	if err != nil {
		return fmt.Errorf("updating memory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchMemories returns memories matching the query filters, most important
// first, newest breaking ties.
func (s *SQLiteStore) SearchMemories(ctx context.Context, q MemoryQuery) ([]*Memory, error) {
	var conds []string
	var args []any

	if q.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if q.Text != "" {
		conds = append(conds, "content LIKE ?")
		args = append(args, "%"+q.Text+"%")
	}

	query := `
		SELECT id, type, content, user_id, session_id, message_id,
			entities, importance, tags, created_at
		FROM memories
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY importance DESC, created_at DESC LIMIT ?"

	limit := q.Limit
	if limit <= 0 {
		limit = defaultMemoryLimit
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer rows.Close()

	var memories []*Memory
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, mem)
	}
	return memories, rows.Err()
}

func scanMemory(rows *sql.Rows) (*Memory, error) {
	mem := &Memory{}
	var sessionID, messageID, entities, tags sql.NullString
	var createdAtStr string

	if err := rows.Scan(&mem.ID, &mem.Type, &mem.Content, &mem.UserID,
		&sessionID, &messageID, &entities, &mem.Importance, &tags, &createdAtStr); err != nil {
		return nil, fmt.Errorf("scanning memory: %w", err)
	}

	mem.SessionID = sessionID.String
	mem.MessageID = messageID.String
	mem.EntityValues = decodeStrings(entities)
	mem.Tags = decodeStrings(tags)

	var err error
	mem.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return mem, nil
}

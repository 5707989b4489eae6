// ABOUTME: SQLite operations for message records
// ABOUTME: Append-only writes with ordered retrieval per session

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveMessage appends a message to its session. Messages are never updated
// or deleted individually.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *Message) error {
	meta, err := encodeBlob(msg.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	query := `
		INSERT INTO messages (id, session_id, sender, kind, content, confidence, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		msg.ID,
		msg.SessionID,
		msg.Sender,
		msg.Kind,
		msg.Content,
		nullFloat(msg.Confidence),
		nullString(meta),
		msg.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("message saved",
		"id", msg.ID,
		"session_id", msg.SessionID,
		"kind", msg.Kind,
	)
	return nil
}

// GetMessagesBySession returns messages for a session in non-decreasing
// timestamp order, insertion order breaking ties. A limit of 0 returns all.
func (s *SQLiteStore) GetMessagesBySession(ctx context.Context, sessionID string, limit int) ([]*Message, error) {
	query := `
		SELECT id, session_id, sender, kind, content, confidence, metadata, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		var confidence sql.NullFloat64
		var meta sql.NullString
		var createdAtStr string

		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Sender, &msg.Kind,
			&msg.Content, &confidence, &meta, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}

		msg.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			msg.Confidence = &c
		}
		msg.Metadata = decodeMap(meta)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

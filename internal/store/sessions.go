// ABOUTME: SQLite operations for session records
// ABOUTME: Maintains the endTime-iff-ended invariant and runs expiry cleanup

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateSession inserts a new session record.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	meta, err := encodeBlob(session.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	query := `
		INSERT INTO sessions (id, user_id, status, start_time, end_time, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var endTime sql.NullString
	if session.EndTime != nil {
		endTime = sql.NullString{String: session.EndTime.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Status,
		session.StartTime.UTC().Format(time.RFC3339),
		endTime,
		nullString(meta),
		session.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("session created", "id", session.ID, "user_id", session.UserID)
	return nil
}

// GetSession retrieves a session by ID. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, user_id, status, start_time, end_time, metadata, updated_at
		FROM sessions WHERE id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading session: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanSession(rows)
}

// UpdateSessionStatus sets the session status and end time together so the
// endTime-iff-ended invariant cannot be violated by a partial write.
// Callers pass a non-nil endTime exactly when status is "ended".
func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, id, status string, endTime *time.Time) error {
	var end sql.NullString
	if endTime != nil {
		end = sql.NullString{String: endTime.UTC().Format(time.RFC3339), Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, end_time = ?, updated_at = ? WHERE id = ?`,
		status, end, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("session status updated", "id", id, "status", status)
	return nil
}

// ListSessionsByUser returns all sessions owned by a user, newest first.
func (s *SQLiteStore) ListSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	query := `
		SELECT id, user_id, status, start_time, end_time, metadata, updated_at
		FROM sessions WHERE user_id = ?
		ORDER BY start_time DESC, rowid DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// CleanupExpiredSessions transitions active sessions whose start time is older
// than the timeout window to ended, and returns the number changed. Runs on a
// fixed interval, not on demand.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, olderThan time.Duration) (int, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-olderThan).Format(time.RFC3339)

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = ?, end_time = ?, updated_at = ?
		WHERE status = ? AND start_time < ?
	`,
		SessionStatusEnded,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
		SessionStatusActive,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("cleaning up sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	if rows > 0 {
		s.logger.Info("expired sessions cleaned up", "count", rows, "older_than", olderThan)
	}
	return int(rows), nil
}

// DeleteSession hard-deletes a session and its messages. Admin action only;
// normal lifecycle never removes session rows.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting session messages: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Info("session deleted", "id", id)
	return nil
}

// scanSession reads one session row. Works for both QueryRow and Rows since
// sessions are always selected with the same column order.
func scanSession(rows *sql.Rows) (*Session, error) {
	session := &Session{}
	var endTime, meta sql.NullString
	var startStr, updatedStr string

	if err := rows.Scan(&session.ID, &session.UserID, &session.Status,
		&startStr, &endTime, &meta, &updatedStr); err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	var err error
	session.StartTime, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	session.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if endTime.Valid {
		t, err := time.Parse(time.RFC3339, endTime.String)
		if err != nil {
			return nil, fmt.Errorf("parsing end_time: %w", err)
		}
		session.EndTime = &t
	}
	session.Metadata = decodeMap(meta)
	return session, nil
}

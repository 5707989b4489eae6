// ABOUTME: SQLite operations for analytics events
// ABOUTME: Coarse operational counters recorded by the gateway and cleanup timer

package store

import (
	"context"
	"fmt"
	"time"
)

// RecordAnalytics inserts an analytics event. Best-effort callers log and
// continue on failure; nothing downstream depends on these rows.
func (s *SQLiteStore) RecordAnalytics(ctx context.Context, event *AnalyticsEvent) error {
	payload, err := encodeBlob(event.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	query := `
		INSERT INTO analytics (id, kind, session_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Kind,
		nullString(event.SessionID),
		nullString(payload),
		event.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting analytics event: %w", err)
	}
	return nil
}

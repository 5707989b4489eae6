// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/session/message/memory persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			preferences TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
			ON users(email);

		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			start_time DATETIME NOT NULL,
			end_time DATETIME,
			metadata TEXT,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_user_id
			ON sessions(user_id);

		CREATE INDEX IF NOT EXISTS idx_sessions_status
			ON sessions(status);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			sender TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'user',
			content TEXT NOT NULL,
			confidence REAL,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session_id
			ON messages(session_id);

		CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			user_id TEXT NOT NULL,
			session_id TEXT,
			message_id TEXT,
			entities TEXT,
			importance REAL NOT NULL DEFAULT 0.5,
			tags TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_memories_user_id
			ON memories(user_id);

		CREATE INDEX IF NOT EXISTS idx_memories_session_id
			ON memories(session_id);

		CREATE TABLE IF NOT EXISTS analytics (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			session_id TEXT,
			payload TEXT,
			created_at DATETIME NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// Stats returns per-table row counts for the health endpoint.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		table string
		dest  *int
	}{
		{"users", &stats.Users},
		{"sessions", &stats.Sessions},
		{"messages", &stats.Messages},
		{"memories", &stats.Memories},
		{"analytics", &stats.Analytics},
	}

	for _, c := range counts {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table)
		if err := s.db.QueryRowContext(ctx, query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}

	return stats, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeBlob serializes a value to its JSON text representation for storage.
// Nil maps and empty slices encode to an empty string so the column stays NULL-ish.
func encodeBlob(v any) (string, error) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return "", nil
		}
	case []string:
		if len(t) == 0 {
			return "", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding blob: %w", err)
	}
	return string(data), nil
}

// decodeMap deserializes a stored JSON object column. Malformed or empty blobs
// decode to nil rather than returning an error: a corrupted row must not make
// the whole record unreadable.
func decodeMap(blob sql.NullString) map[string]any {
	if !blob.Valid || blob.String == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(blob.String), &m); err != nil {
		return nil
	}
	return m
}

// decodeStrings deserializes a stored JSON array column with the same
// lossy-but-safe policy as decodeMap.
func decodeStrings(blob sql.NullString) []string {
	if !blob.Valid || blob.String == "" {
		return nil
	}
	var vals []string
	if err := json.Unmarshal([]byte(blob.String), &vals); err != nil {
		return nil
	}
	return vals
}

// nullString converts an empty string to a NULL-able sql value
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullFloat converts a nil float pointer to a NULL-able sql value
func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

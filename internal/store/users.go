// ABOUTME: SQLite operations for user records
// ABOUTME: Enforces the unique-email invariant at the database level

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// CreateUser inserts a new user. Returns ErrDuplicateEmail if the email is
// already registered; the existing user record is unaffected.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	prefs, err := encodeBlob(user.Preferences)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	query := `
		INSERT INTO users (id, name, email, preferences, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		nullString(prefs),
		user.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("user created", "id", user.ID, "email", user.Email)
	return nil
}

// GetUser retrieves a user by ID. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, name, email, preferences, created_at
		FROM users WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, name, email, preferences, created_at
		FROM users WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// UpdateUserPreferences replaces the stored preferences blob for a user.
func (s *SQLiteStore) UpdateUserPreferences(ctx context.Context, id string, prefs map[string]any) error {
	blob, err := encodeBlob(prefs)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET preferences = ? WHERE id = ?`, nullString(blob), id)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
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

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var prefs sql.NullString
	var createdAtStr string

	err := row.Scan(&user.ID, &user.Name, &user.Email, &prefs, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.Preferences = decodeMap(prefs)
	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return user, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
// modernc.org/sqlite does not export a typed error for this, so match the
// constraint message the way the driver renders it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Package store provides persistent storage for the voice agent using SQLite.
//
// # Architecture
//
// The Store interface covers all persistence operations; SQLiteStore is the
// single implementation, backed by modernc.org/sqlite with WAL mode and
// foreign keys enabled. The schema is created in code on startup.
//
// # Data Models
//
//   - User: Registered participant with a unique email and free-form preferences
//   - Session: Bounded conversation (active/paused/ended) owned by a user
//   - Message: Append-only utterance within a session (user or agent)
//   - Memory: Taggable record derived from a message or extracted entity
//   - AnalyticsEvent: Coarse operational counters
//
// # Encoding Policy
//
// Nested values (metadata, preferences, entity values, tags) are stored as
// JSON text columns. Reads are lossy-but-safe: a malformed blob decodes to
// nil instead of failing the row.
//
// # Invariants
//
//   - Session.EndTime is set if and only if Status is "ended"; status and end
//     time are always written in a single UPDATE
//   - User.Email is unique; violating inserts return ErrDuplicateEmail
//   - Messages read back in non-decreasing created_at order (rowid tiebreak)
//
// # Session Expiry
//
// CleanupExpiredSessions transitions stale active sessions to ended in one
// statement and reports the number changed. The timeout window is a single
// configuration value; the store takes it as a parameter.
package store

package attemptlog

import "context"

// Repository is the port for persisting checkout attempt entries.
// The flow depends on this abstraction, not on SQLite directly, so the
// implementation can be swapped for Postgres, in-memory (tests), etc.
type Repository interface {
	// Save persists a new log entry. Each call appends a row; the table is
	// an append-only audit log, not an upsert.
	Save(ctx context.Context, entry *Attempt) error
}

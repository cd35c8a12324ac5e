// Package sqlite provides a SQLite-backed implementation of
// attemptlog.Repository.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa — the checkout flow writes while a support query may be reading.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/phonehub/storefront/internal/checkout/attemptlog"

	// Register the pure-Go SQLite driver.
	// modernc.org/sqlite avoids CGO, which keeps the Docker build trivial.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup.
// The table is append-only: each row is an immutable event in the attempt's
// lifecycle. The latest row per attempt_id gives the current state.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_attempts (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Client-assigned attempt identifier.
    -- Not UNIQUE: multiple rows exist per attempt, one per transition.
    attempt_id      TEXT        NOT NULL,

    -- Email of the cart owner checking out.
    owner_email     TEXT        NOT NULL,

    -- Server-assigned order id, '' until placement succeeds.
    order_id        TEXT        NOT NULL DEFAULT '',

    -- Lifecycle state at the time this row was written.
    status          TEXT        NOT NULL,

    -- Name of the step that just executed (e.g. "place_order").
    current_step    TEXT        NOT NULL DEFAULT '',

    -- JSON order items submitted by the attempt. Written once on SUBMITTING.
    payload         TEXT,

    -- Failure detail for FAILED rows and failed best-effort steps.
    error_message   TEXT        NOT NULL DEFAULT '',

    -- W3C trace_id / span_id from the active OTel span, for joining a log
    -- row with the distributed trace.
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, SQLite idiom.
    updated_at      TEXT        NOT NULL
);

-- The common query: all events for one attempt, in order.
CREATE INDEX IF NOT EXISTS idx_checkout_attempts_attempt_id ON checkout_attempts(attempt_id, updated_at);

-- The support query: find the attempt that produced an order.
CREATE INDEX IF NOT EXISTS idx_checkout_attempts_order_id ON checkout_attempts(order_id);
`

// Repository is the SQLite implementation of attemptlog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
//
//	repo, err := sqlite.Open("./data/checkout.db")
func Open(path string) (*Repository, error) {
	// The pure-Go driver configures connection state via _pragma parameters.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts a new attempt log entry. Safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *attemptlog.Attempt) error {
	const q = `
		INSERT INTO checkout_attempts
			(attempt_id, owner_email, order_id, status, current_step, payload, error_message, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.AttemptID,
		entry.OwnerEmail,
		entry.OrderID,
		string(entry.Status),
		entry.CurrentStep,
		nullableString(entry.Payload),
		entry.ErrorMessage,
		entry.TraceID,
		entry.SpanID,
		entry.UpdatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save attempt log for %q: %w", entry.AttemptID, err)
	}
	return nil
}

// GetLatest returns the most recent log entry for a given attempt ID.
// Useful for a status endpoint or a support lookup.
func (r *Repository) GetLatest(ctx context.Context, attemptID string) (*attemptlog.Attempt, error) {
	const q = `
		SELECT attempt_id, owner_email, order_id, status, current_step,
		       COALESCE(payload,''), error_message, trace_id, span_id, updated_at
		FROM   checkout_attempts
		WHERE  attempt_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`

	row := r.db.QueryRowContext(ctx, q, attemptID)

	var entry attemptlog.Attempt
	var updatedAt string
	err := row.Scan(
		&entry.AttemptID,
		&entry.OwnerEmail,
		&entry.OrderID,
		&entry.Status,
		&entry.CurrentStep,
		&entry.Payload,
		&entry.ErrorMessage,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: attempt %q not found", attemptID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", attemptID, err)
	}

	entry.UpdatedAt, err = parseRFC3339(updatedAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// applySchema runs the DDL statements once. Idempotent due to IF NOT EXISTS.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings so SQLite stores NULL instead
// of an empty TEXT on non-SUBMITTING rows.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseRFC3339 decodes the TEXT timestamps written by Save. updated_at is
// stored as RFC3339 since SQLite has no datetime column type.
func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}

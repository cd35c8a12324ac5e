// Package attemptlog defines the domain types for the checkout attempt log.
//
// The attempt log is a durable audit trail of every state transition a
// checkout attempt goes through. It serves two purposes:
//
//  1. Observability: you can query the DB to see exactly where an attempt is
//     (or was) and correlate it with a distributed trace via the trace_id
//     field.
//
//  2. Support: when a customer reports "I paid but my order is gone", the log
//     shows whether the order was placed, whether the post-order cart clear
//     ran, and which step failed.
package attemptlog

import "time"

// Status represents the lifecycle state of a checkout attempt.
type Status string

const (
	StatusSubmitting Status = "SUBMITTING"
	StatusStepDone   Status = "STEP_DONE"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
)

// Attempt is a single row in the checkout_attempts table.
// It captures a point-in-time snapshot of one checkout attempt.
type Attempt struct {
	// AttemptID is the unique identifier for this checkout attempt. Assigned
	// client-side so failed attempts (which never get an order ID) are still
	// traceable.
	AttemptID string

	// OwnerEmail identifies whose cart was being checked out.
	OwnerEmail string

	// OrderID is the server-assigned order identifier, set once placement
	// succeeds. Empty on earlier and failed rows.
	OrderID string

	// Status is the lifecycle state at the time this row was written.
	Status Status

	// CurrentStep is the name of the step that was just executed or failed.
	CurrentStep string

	// Payload is the JSON-serialised order items submitted by this attempt.
	// Stored once on the SUBMITTING row.
	Payload string

	// ErrorMessage holds the failure detail for FAILED rows, and for
	// best-effort steps that failed without failing the attempt.
	ErrorMessage string

	// TraceID is the W3C trace ID extracted from the OpenTelemetry span that
	// was active when this entry was written, so a log row can be joined
	// directly with the full distributed trace.
	TraceID string

	// SpanID is the specific span within the trace.
	SpanID string

	// UpdatedAt is the wall-clock time of this log entry.
	UpdatedAt time.Time
}

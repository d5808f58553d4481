// Package store provides persistence backends for the solve journal:
// the dispatcher's progress trail and final solve summaries.
//
// The journal records observability data only. The frontier itself is
// never persisted — a restarted dispatcher starts from an empty queue.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run ID does not exist.
var ErrNotFound = errors.New("not found")

// ProgressRecord is one journaled dispatcher event: a worker update, a
// forwarded log line, or a lifecycle transition.
type ProgressRecord struct {
	// RunID identifies the solve session.
	RunID string

	// Seq is the dispatcher's message sequence number, non-decreasing
	// within a run. Records written while handling one message (an
	// update and the no-work replies it triggers) share its number.
	Seq int

	// Rank is the worker rank the record concerns: the sender of the
	// message, or the worker a no-work reply went to.
	Rank int

	// Kind classifies the record: "update", "no_work", "log_info",
	// "log_warning", "log_debug", "log_error", "solve_finished",
	// "finalized".
	Kind string

	// Bound is the bound attached to the record, if any.
	Bound float64

	// BestObjective is the incumbent at record time.
	BestObjective float64

	// Explored is the cumulative explored-node count at record time.
	Explored int64

	// QueueSize is the frontier size after the record's event.
	QueueSize int

	// Text carries forwarded log text; empty for non-log records.
	Text string

	// At is the record's wall-clock timestamp.
	At time.Time
}

// Summary is the final outcome of one solve session.
type Summary struct {
	// RunID identifies the solve session.
	RunID string

	// BestObjective is the final incumbent.
	BestObjective float64

	// GlobalBound is the weakest bound left unproven at termination;
	// equal to BestObjective when the solve converged.
	GlobalBound float64

	// ExploredNodes is the total node count explored across workers.
	ExploredNodes int64

	// WallSeconds is the dispatcher's serve-loop duration.
	WallSeconds float64

	// CompletedAt is when the dispatcher finalized the run.
	CompletedAt time.Time
}

// Journal persists solve progress and outcomes.
//
// Implementations must tolerate concurrent readers (dashboards, tests)
// while the single-threaded dispatcher appends.
type Journal interface {
	// AppendProgress adds one progress record to the run's trail.
	AppendProgress(ctx context.Context, rec ProgressRecord) error

	// Progress returns the run's full trail in append order.
	// Returns ErrNotFound when the run has no records.
	Progress(ctx context.Context, runID string) ([]ProgressRecord, error)

	// SaveSummary stores the run's final outcome, replacing any
	// previous summary for the same run.
	SaveSummary(ctx context.Context, summary Summary) error

	// LoadSummary returns the run's final outcome, or ErrNotFound.
	LoadSummary(ctx context.Context, runID string) (Summary, error)

	// Close releases backend resources.
	Close() error
}

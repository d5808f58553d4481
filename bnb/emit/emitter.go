// Package emit provides event emission and observability for solve runs.
package emit

import "context"

// Emitter receives observability events from the dispatcher.
//
// Implementations should be resilient — a failing backend must not take
// the solve down with it — and cheap enough to sit on the dispatcher's
// serve loop. The dispatcher itself is single-threaded, but emitters
// may also be read from other goroutines (dashboards, tests), so
// implementations guard their own state.
type Emitter interface {
	// Emit records one event. It must not panic; backend failures are
	// handled internally.
	Emit(event Event)

	// EmitBatch records several events in order. Batching lets
	// backends amortize I/O; failures of individual events are handled
	// internally, and only configuration-level problems surface as an
	// error.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush forces buffered events out to the backend. Call it before
	// teardown so late events are not lost. Safe to call repeatedly.
	Flush(ctx context.Context) error
}

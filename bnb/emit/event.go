package emit

// Event is one observability record from a solve: a worker update
// arriving at the dispatcher, a forwarded worker log line, an incumbent
// improvement, a termination decision.
//
// Events flow to an Emitter, which can log them, buffer them for
// inspection, or turn them into trace spans.
type Event struct {
	// RunID identifies the solve session that emitted this event.
	RunID string

	// Rank is the worker rank the event concerns: the worker a message
	// came from, or the worker a reply went to.
	Rank int

	// Seq is the dispatcher's message sequence number at emission
	// time. Zero for events outside the serve loop.
	Seq int

	// Msg is a short event name, e.g. "update", "work_dispatched",
	// "incumbent_improved", "solve_finished", "log_info".
	Msg string

	// Meta carries event-specific structured data. Common keys:
	//   - "bound": the bound attached to the event
	//   - "best_objective": the incumbent at emission time
	//   - "explored": cumulative explored-node count
	//   - "queue_size": frontier size after the event
	//   - "text": forwarded worker log text
	Meta map[string]interface{}
}

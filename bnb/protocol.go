// Package bnb implements the coordination core of a parallel
// branch-and-bound solver: the dispatcher/worker message protocol, the
// frontier priority queues, and the role handshake that wires a process
// group into one dispatcher and a set of workers.
package bnb

// ProcessType tags a process's role during startup. The numeric values
// are load-bearing: the handshake sums them across the group to check
// that exactly one dispatcher exists, and uses a max-with-location
// reduction over them to learn the dispatcher's rank.
type ProcessType int

const (
	// ProcessWorker marks a worker process.
	ProcessWorker ProcessType = 0

	// ProcessDispatcher marks the single dispatcher process.
	ProcessDispatcher ProcessType = 1
)

// Action tags classify messages sent from a worker to the dispatcher.
// The values are part of the wire protocol and must not change.
const (
	TagUpdate        = 111
	TagSolveFinished = 211
	TagBarrier       = 311
	TagFinalize      = 411
	TagLogInfo       = 511
	TagLogWarning    = 611
	TagLogDebug      = 711
	TagLogError      = 811
)

// Response tags classify messages sent from the dispatcher to a worker.
const (
	// TagWork carries a serialized node for the worker to explore.
	TagWork = 1111

	// TagNoWork carries a single float64: the current best objective.
	TagNoWork = 2111
)

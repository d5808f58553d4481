package bnb

import (
	"fmt"

	"github.com/parbnb/parbnb-go/bnb/emit"
	"github.com/parbnb/parbnb-go/bnb/store"
)

// Option configures a Dispatcher.
type Option func(*dispatcherConfig) error

// dispatcherConfig collects options before they are applied, so they
// can be validated together in NewDispatcher.
type dispatcherConfig struct {
	strategy QueueStrategy
	queue    PriorityQueue
	hasBest  bool
	best     float64
	emitter  emit.Emitter
	metrics  *Metrics
	journal  store.Journal
	runID    string
}

// WithQueueStrategy selects the frontier ordering. Default:
// WorstBoundFirst.
func WithQueueStrategy(strategy QueueStrategy) Option {
	return func(cfg *dispatcherConfig) error {
		cfg.strategy = strategy
		return nil
	}
}

// WithQueue installs a caller-built frontier, overriding
// WithQueueStrategy. The queue must start from the same incumbent the
// dispatcher does.
func WithQueue(queue PriorityQueue) Option {
	return func(cfg *dispatcherConfig) error {
		if queue == nil {
			return fmt.Errorf("bnb: WithQueue requires a non-nil queue")
		}
		cfg.queue = queue
		return nil
	}
}

// WithInitialObjective seeds the incumbent, e.g. from a known feasible
// solution. Default: the sense's worst value (+Inf minimizing, -Inf
// maximizing).
func WithInitialObjective(best float64) Option {
	return func(cfg *dispatcherConfig) error {
		cfg.hasBest = true
		cfg.best = best
		return nil
	}
}

// WithEmitter routes dispatcher events (updates, dispatches, forwarded
// worker logs, lifecycle transitions) to the given emitter. Default: a
// NullEmitter.
func WithEmitter(emitter emit.Emitter) Option {
	return func(cfg *dispatcherConfig) error {
		if emitter == nil {
			return fmt.Errorf("bnb: WithEmitter requires a non-nil emitter")
		}
		cfg.emitter = emitter
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection on the dispatcher.
func WithMetrics(metrics *Metrics) Option {
	return func(cfg *dispatcherConfig) error {
		cfg.metrics = metrics
		return nil
	}
}

// WithJournal persists the solve's progress trail and final summary to
// the given journal.
func WithJournal(journal store.Journal) Option {
	return func(cfg *dispatcherConfig) error {
		if journal == nil {
			return fmt.Errorf("bnb: WithJournal requires a non-nil journal")
		}
		cfg.journal = journal
		return nil
	}
}

// WithRunID fixes the solve session identifier. Default: a fresh UUID.
func WithRunID(runID string) Option {
	return func(cfg *dispatcherConfig) error {
		if runID == "" {
			return fmt.Errorf("bnb: WithRunID requires a non-empty id")
		}
		cfg.runID = runID
		return nil
	}
}

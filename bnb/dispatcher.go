package bnb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/parbnb/parbnb-go/bnb/comm"
	"github.com/parbnb/parbnb-go/bnb/emit"
	"github.com/parbnb/parbnb-go/bnb/store"
)

// Dispatcher is the central process of a solve: it owns the global
// frontier, answers worker requests, aggregates progress, and decides
// when the computation has terminated.
//
// The dispatcher is single-threaded. Serve processes one message at a
// time off the fabric; the frontier queue is touched by no one else,
// which is why the queues carry no locking.
type Dispatcher struct {
	comm           comm.Comm
	subComm        comm.Comm
	rootWorkerRank int
	workerCount    int

	queue     PriorityQueue
	converger Converger
	emitter   emit.Emitter
	metrics   *Metrics
	journal   store.Journal
	runID     string

	best     float64
	explored int64
	seq      int

	// waiting holds the ranks of workers blocked in an update call
	// until the dispatcher owes each of them exactly one response.
	waiting map[int]struct{}

	solveFinished bool
}

// NewDispatcher runs the dispatcher side of the role handshake and
// returns a dispatcher ready to Serve. Every rank of the group must
// enter its side of the handshake at the same time.
func NewDispatcher(c comm.Comm, converger Converger, opts ...Option) (*Dispatcher, error) {
	if converger == nil {
		return nil, fmt.Errorf("bnb: dispatcher requires a converger")
	}
	cfg := &dispatcherConfig{strategy: WorstBoundFirst}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if !cfg.hasBest {
		if converger.Sense() == Minimize {
			cfg.best = math.Inf(1)
		} else {
			cfg.best = math.Inf(-1)
		}
	}
	if cfg.emitter == nil {
		cfg.emitter = emit.NewNullEmitter()
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	queue := cfg.queue
	if queue == nil {
		var err error
		queue, err = NewQueue(cfg.strategy, cfg.best, converger)
		if err != nil {
			return nil, err
		}
	}

	r, err := handshake(c, ProcessDispatcher)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		comm:           c,
		subComm:        r.subComm,
		rootWorkerRank: r.rootWorkerRank,
		workerCount:    c.Size() - 1,
		queue:          queue,
		converger:      converger,
		emitter:        cfg.emitter,
		metrics:        cfg.metrics,
		journal:        cfg.journal,
		runID:          cfg.runID,
		best:           cfg.best,
		waiting:        make(map[int]struct{}),
	}, nil
}

// RunID returns the solve session identifier.
func (d *Dispatcher) RunID() string { return d.runID }

// BestObjective returns the current global incumbent.
func (d *Dispatcher) BestObjective() float64 { return d.best }

// ExploredNodes returns the cumulative explored-node count reported by
// workers so far.
func (d *Dispatcher) ExploredNodes() int64 { return d.explored }

// Serve runs the dispatcher loop until a finalize message arrives, then
// broadcasts the final results and returns the solve summary.
//
// The context scopes journal writes only; the protocol itself has no
// cancellation — a stuck worker stalls the solve, by design of the
// embedding model.
func (d *Dispatcher) Serve(ctx context.Context) (store.Summary, error) {
	start := d.comm.Wtime()
	for {
		status, err := d.comm.Probe()
		if err != nil {
			return store.Summary{}, fmt.Errorf("dispatcher probe: %w", err)
		}
		d.seq++

		switch status.Tag {
		case TagUpdate:
			buf, err := d.comm.Recv(status.Source, TagUpdate)
			if err != nil {
				return store.Summary{}, fmt.Errorf("update receive: %w", err)
			}
			frame, err := UnpackUpdateFrame(buf)
			if err != nil {
				return store.Summary{}, err
			}
			if err := d.handleUpdate(ctx, status.Source, frame); err != nil {
				return store.Summary{}, err
			}

		case TagBarrier:
			if _, err := d.comm.RecvBytes(status.Source, TagBarrier); err != nil {
				return store.Summary{}, fmt.Errorf("barrier receive: %w", err)
			}
			d.emit("barrier", status.Source, nil)
			if err := d.comm.Barrier(); err != nil {
				return store.Summary{}, fmt.Errorf("global barrier: %w", err)
			}

		case TagSolveFinished:
			if _, err := d.comm.RecvBytes(status.Source, TagSolveFinished); err != nil {
				return store.Summary{}, fmt.Errorf("solve-finished receive: %w", err)
			}
			d.solveFinished = true
			d.emit("solve_finished", status.Source, nil)
			d.journalRecord(ctx, status.Source, "solve_finished", 0, "")

		case TagFinalize:
			if _, err := d.comm.RecvBytes(status.Source, TagFinalize); err != nil {
				return store.Summary{}, fmt.Errorf("finalize receive: %w", err)
			}
			return d.finalize(ctx, start, status.Source)

		case TagLogInfo, TagLogWarning, TagLogDebug, TagLogError:
			text, err := d.comm.RecvBytes(status.Source, status.Tag)
			if err != nil {
				return store.Summary{}, fmt.Errorf("log receive: %w", err)
			}
			kind := logKind(status.Tag)
			d.emit(kind, status.Source, map[string]interface{}{"text": string(text)})
			d.journalRecord(ctx, status.Source, kind, 0, string(text))

		default:
			return store.Summary{}, &ProtocolError{
				Message: fmt.Sprintf("dispatcher received tag %d from rank %d", status.Tag, status.Source),
				Code:    "UNEXPECTED_TAG",
			}
		}
	}
}

// handleUpdate folds one worker report into the global state and
// answers every worker the dispatcher now owes a response.
func (d *Dispatcher) handleUpdate(ctx context.Context, source int, frame *UpdateFrame) error {
	began := time.Now()
	defer func() { d.metrics.observeUpdate(time.Since(began)) }()

	d.metrics.incUpdate(fmt.Sprintf("%d", source))
	d.explored += frame.ExploredNodes
	d.metrics.addExplored(frame.ExploredNodes)

	if d.objectiveImproves(frame.BestObjective) {
		d.best = frame.BestObjective
		removed := d.queue.UpdateForBestObjective(d.best)
		d.metrics.addPruned(len(removed))
		d.metrics.setBestObjective(d.best)
		d.emit("incumbent_improved", source, map[string]interface{}{
			"best_objective": d.best,
			"purged":         len(removed),
		})
	}

	for _, state := range frame.NodeStates {
		node, err := UnmarshalNode(state)
		if err != nil {
			return err
		}
		if !d.queue.Put(node) {
			d.metrics.addPruned(1)
		}
	}

	d.emit("update", source, map[string]interface{}{
		"bound":          frame.PreviousBound,
		"explored":       d.explored,
		"best_objective": d.best,
		"queue_size":     d.queue.Size(),
	})
	d.journalRecord(ctx, source, "update", frame.PreviousBound, "")

	d.waiting[source] = struct{}{}
	if err := d.respond(ctx); err != nil {
		return err
	}
	d.metrics.setQueueSize(d.queue.Size())
	return nil
}

// respond hands out frontier nodes to waiting workers, lowest rank
// first. When the frontier is empty and every worker is waiting, the
// solve has terminated: all of them get the no-work signal.
func (d *Dispatcher) respond(ctx context.Context) error {
	ranks := make([]int, 0, len(d.waiting))
	for rank := range d.waiting {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)

	for _, rank := range ranks {
		if d.queue.Size() == 0 {
			break
		}
		node := d.queue.Get()
		node.BestObjective = d.best
		buf, err := node.Marshal()
		if err != nil {
			return err
		}
		if err := d.comm.Send(buf, rank, TagWork); err != nil {
			return fmt.Errorf("work send: %w", err)
		}
		delete(d.waiting, rank)
		d.metrics.incWorkDispatched()
		d.emit("work_dispatched", rank, map[string]interface{}{
			"bound":      node.Bound,
			"tree_depth": node.TreeDepth,
		})
	}

	if d.queue.Size() == 0 && len(d.waiting) == d.workerCount {
		for _, rank := range ranks {
			if _, still := d.waiting[rank]; !still {
				continue
			}
			if err := d.comm.Send([]float64{d.best}, rank, TagNoWork); err != nil {
				return fmt.Errorf("no-work send: %w", err)
			}
			delete(d.waiting, rank)
			d.metrics.incNoWorkReply()
			d.emit("no_work", rank, map[string]interface{}{"best_objective": d.best})
			d.journalRecord(ctx, rank, "no_work", 0, "")
		}
	}
	return nil
}

// finalize broadcasts the aggregated results to every rank and writes
// the summary.
func (d *Dispatcher) finalize(ctx context.Context, start float64, source int) (store.Summary, error) {
	summary := store.Summary{
		RunID:         d.runID,
		BestObjective: d.best,
		GlobalBound:   d.globalBound(),
		ExploredNodes: d.explored,
		WallSeconds:   d.comm.Wtime() - start,
		CompletedAt:   time.Now().UTC(),
	}
	results := []float64{summary.BestObjective, summary.GlobalBound, float64(summary.ExploredNodes)}
	if _, err := d.comm.Bcast(results, d.comm.Rank()); err != nil {
		return store.Summary{}, fmt.Errorf("finalize broadcast: %w", err)
	}
	d.emit("finalized", source, map[string]interface{}{
		"best_objective": summary.BestObjective,
		"global_bound":   summary.GlobalBound,
		"explored":       summary.ExploredNodes,
	})
	d.journalRecord(ctx, source, "finalized", summary.GlobalBound, "")
	if d.journal != nil {
		if err := d.journal.SaveSummary(ctx, summary); err != nil {
			return store.Summary{}, fmt.Errorf("summary save: %w", err)
		}
	}
	return summary, nil
}

// globalBound is the weakest claim still open: the frontier's bound
// while nodes remain, the incumbent once the frontier has drained.
func (d *Dispatcher) globalBound() float64 {
	if bound, ok := d.queue.Bound(); ok {
		return bound
	}
	return d.best
}

func (d *Dispatcher) objectiveImproves(candidate float64) bool {
	if d.converger.Sense() == Minimize {
		return candidate < d.best
	}
	return candidate > d.best
}

// Close releases the dispatcher's singleton sub-communicator.
func (d *Dispatcher) Close() error {
	if d.subComm == nil {
		return nil
	}
	err := d.subComm.Free()
	d.subComm = nil
	return err
}

func (d *Dispatcher) emit(msg string, rank int, meta map[string]interface{}) {
	d.emitter.Emit(emit.Event{
		RunID: d.runID,
		Rank:  rank,
		Seq:   d.seq,
		Msg:   msg,
		Meta:  meta,
	})
}

func (d *Dispatcher) journalRecord(ctx context.Context, rank int, kind string, bound float64, text string) {
	if d.journal == nil {
		return
	}
	// Journal failures are observability losses, not solve failures.
	_ = d.journal.AppendProgress(ctx, store.ProgressRecord{
		RunID:         d.runID,
		Seq:           d.seq,
		Rank:          rank,
		Kind:          kind,
		Bound:         bound,
		BestObjective: d.best,
		Explored:      d.explored,
		QueueSize:     d.queue.Size(),
		Text:          text,
		At:            time.Now().UTC(),
	})
}

func logKind(tag int) string {
	switch tag {
	case TagLogInfo:
		return "log_info"
	case TagLogWarning:
		return "log_warning"
	case TagLogDebug:
		return "log_debug"
	default:
		return "log_error"
	}
}

package bnb

import (
	"fmt"

	"github.com/parbnb/parbnb-go/bnb/comm"
)

// DispatcherProxy is the worker-side handle on the central dispatcher.
// It serializes worker calls into the message protocol and hides the
// synchronization points behind plain method calls.
//
// Every operation is wrapped by the comm action timer, so CommTime
// reports the wall-clock share this worker spent inside the fabric.
//
// Message ordering: within one proxy, messages reach the dispatcher in
// issue order. Update is the only request that consumes a response; the
// control operations (Barrier, SolveFinished, the Log methods) use
// rendezvous sends so their completion implies the dispatcher has
// matched the receive.
type DispatcherProxy struct {
	comm              comm.Comm
	workerComm        comm.Comm
	dispatcherRank    int
	rootWorkerRank    int
	rootWorkerSubRank int
	timer             *ActionTimer
}

// NewDispatcherProxy runs the worker side of the role handshake and
// returns a connected proxy. Every rank of the group must enter its
// side of the handshake (NewDispatcherProxy on workers, NewDispatcher
// on the dispatcher) at the same time; the exchange is collective.
func NewDispatcherProxy(c comm.Comm) (*DispatcherProxy, error) {
	p := &DispatcherProxy{comm: c, timer: newActionTimer(c.Wtime)}
	p.timer.Start()
	defer p.timer.Stop()

	r, err := handshake(c, ProcessWorker)
	if err != nil {
		return nil, err
	}
	p.workerComm = r.subComm
	p.dispatcherRank = r.dispatcherRank
	p.rootWorkerRank = r.rootWorkerRank
	p.rootWorkerSubRank = r.rootWorkerSubRank
	return p, nil
}

// IsRootWorker reports whether this worker is the one designated to
// perform collective operations on behalf of all workers.
func (p *DispatcherProxy) IsRootWorker() bool {
	return p.comm.Rank() == p.rootWorkerRank
}

// CommTime returns the accumulated wall-clock seconds this proxy has
// spent inside transport calls.
func (p *DispatcherProxy) CommTime() float64 { return p.timer.Total() }

// Update reports exploration progress and newly branched nodes to the
// dispatcher, then blocks for exactly one response.
//
// The response is either a piece of work — a serialized node whose
// embedded best objective reflects the current global incumbent — or a
// no-work signal carrying the incumbent alone. Update returns the
// objective from whichever arrived, and the node state or nil.
func (p *DispatcherProxy) Update(bestObjective, previousBound float64, exploredNodes int64, nodeStates [][]float64) (float64, []float64, error) {
	p.timer.Start()
	defer p.timer.Stop()

	frame := &UpdateFrame{
		BestObjective: bestObjective,
		PreviousBound: previousBound,
		ExploredNodes: exploredNodes,
		NodeStates:    nodeStates,
	}
	buf, err := frame.Pack()
	if err != nil {
		return 0, nil, err
	}
	if err := p.comm.Send(buf, p.dispatcherRank, TagUpdate); err != nil {
		return 0, nil, fmt.Errorf("update send: %w", err)
	}

	status, err := p.comm.Probe()
	if err != nil {
		return 0, nil, fmt.Errorf("update probe: %w", err)
	}
	switch status.Tag {
	case TagNoWork:
		data, err := p.comm.Recv(p.dispatcherRank, TagNoWork)
		if err != nil {
			return 0, nil, fmt.Errorf("no-work receive: %w", err)
		}
		if len(data) != 1 {
			return 0, nil, &ProtocolError{
				Message: fmt.Sprintf("no-work frame carried %d values, want 1", len(data)),
				Code:    "BAD_FRAME",
			}
		}
		return data[0], nil, nil
	case TagWork:
		state, err := p.comm.Recv(p.dispatcherRank, TagWork)
		if err != nil {
			return 0, nil, fmt.Errorf("work receive: %w", err)
		}
		best, err := ExtractBestObjective(state)
		if err != nil {
			return 0, nil, err
		}
		return best, state, nil
	default:
		return 0, nil, &ProtocolError{
			Message: fmt.Sprintf("update reply carried tag %d, want work or no-work", status.Tag),
			Code:    "UNEXPECTED_TAG",
		}
	}
}

// Barrier synchronizes all workers with the dispatcher. The workers
// first meet on their own sub-communicator; the root worker then pings
// the dispatcher with a rendezvous send, so the dispatcher has matched
// the receive before anyone enters the global barrier.
func (p *DispatcherProxy) Barrier() error {
	p.timer.Start()
	defer p.timer.Stop()

	if err := p.workerComm.Barrier(); err != nil {
		return fmt.Errorf("worker barrier: %w", err)
	}
	if p.comm.Rank() == p.rootWorkerRank {
		if err := p.comm.SsendBytes(nil, p.dispatcherRank, TagBarrier); err != nil {
			return fmt.Errorf("barrier notify: %w", err)
		}
	}
	if err := p.comm.Barrier(); err != nil {
		return fmt.Errorf("global barrier: %w", err)
	}
	return nil
}

// SolveFinished tells the dispatcher the solve loop has terminated.
// Only the root worker may call it.
func (p *DispatcherProxy) SolveFinished() error {
	p.timer.Start()
	defer p.timer.Stop()

	if p.workerComm.Rank() != p.rootWorkerSubRank {
		return ErrNotRootWorker
	}
	if err := p.comm.SsendBytes(nil, p.dispatcherRank, TagSolveFinished); err != nil {
		return fmt.Errorf("solve-finished notify: %w", err)
	}
	return nil
}

// Finalize triggers the dispatcher's final-results broadcast and
// returns the received results. The root worker sends the trigger; all
// workers then join the broadcast rooted at the dispatcher.
func (p *DispatcherProxy) Finalize() ([]float64, error) {
	p.timer.Start()
	defer p.timer.Stop()

	if p.workerComm.Rank() == p.rootWorkerSubRank {
		if err := p.comm.SendBytes(nil, p.dispatcherRank, TagFinalize); err != nil {
			return nil, fmt.Errorf("finalize notify: %w", err)
		}
	}
	results, err := p.comm.Bcast(nil, p.dispatcherRank)
	if err != nil {
		return nil, fmt.Errorf("finalize broadcast: %w", err)
	}
	return results, nil
}

// LogInfo forwards an info-level message to the dispatcher's logger.
func (p *DispatcherProxy) LogInfo(msg string) error { return p.sendLog(TagLogInfo, msg) }

// LogWarning forwards a warning-level message to the dispatcher's logger.
func (p *DispatcherProxy) LogWarning(msg string) error { return p.sendLog(TagLogWarning, msg) }

// LogDebug forwards a debug-level message to the dispatcher's logger.
func (p *DispatcherProxy) LogDebug(msg string) error { return p.sendLog(TagLogDebug, msg) }

// LogError forwards an error-level message to the dispatcher's logger.
func (p *DispatcherProxy) LogError(msg string) error { return p.sendLog(TagLogError, msg) }

// sendLog ships the message with rendezvous semantics so the logger can
// never fall behind the sender.
func (p *DispatcherProxy) sendLog(tag int, msg string) error {
	p.timer.Start()
	defer p.timer.Stop()

	if err := p.comm.SsendBytes([]byte(msg), p.dispatcherRank, tag); err != nil {
		return fmt.Errorf("log send: %w", err)
	}
	return nil
}

// Close releases the worker sub-communicator. The proxy must not be
// used afterwards.
func (p *DispatcherProxy) Close() error {
	if p.workerComm == nil {
		return nil
	}
	err := p.workerComm.Free()
	p.workerComm = nil
	return err
}

package bnb

import (
	"fmt"

	"github.com/parbnb/parbnb-go/bnb/comm"
)

// roles is the outcome of the startup handshake on one rank: who the
// dispatcher is, which worker fronts collective operations, and the
// rank's sub-communicator (the shared worker group for workers, a
// singleton for the dispatcher).
type roles struct {
	dispatcherRank int

	// rootWorkerRank is the root worker's rank in the parent
	// communicator.
	rootWorkerRank int

	// rootWorkerSubRank is the root worker's rank within the worker
	// sub-communicator, known on every rank after the handshake.
	rootWorkerSubRank int

	subComm comm.Comm
}

// handshake partitions the process group into one dispatcher and N>=1
// workers. Every rank calls it with its own process type; the exchange
// is collective and all ranks must participate.
//
// The group must contain exactly one dispatcher and at least one
// worker. Violations are fatal configuration errors with no retry.
func handshake(c comm.Comm, ptype ProcessType) (roles, error) {
	if ptype != ProcessWorker && ptype != ProcessDispatcher {
		return roles{}, &ProtocolError{
			Message: fmt.Sprintf("invalid process type %d", int(ptype)),
			Code:    "HANDSHAKE_MISMATCH",
		}
	}
	if c.Size() < 2 {
		return roles{}, ErrGroupTooSmall
	}

	// Exactly one dispatcher: the types sum to the dispatcher tag.
	sum, err := c.AllreduceSum(int(ptype))
	if err != nil {
		return roles{}, fmt.Errorf("handshake type sum: %w", err)
	}
	if sum != int(ProcessDispatcher) {
		return roles{}, &ProtocolError{
			Message: fmt.Sprintf("process type sum is %d, want exactly one dispatcher", sum),
			Code:    "HANDSHAKE_MISMATCH",
		}
	}

	// The dispatcher holds the maximum type value; max-with-location
	// tells every rank where it lives.
	maxType, drank, err := c.AllreduceMaxLoc(int(ptype))
	if err != nil {
		return roles{}, fmt.Errorf("handshake dispatcher election: %w", err)
	}
	if maxType != int(ProcessDispatcher) {
		return roles{}, &ProtocolError{
			Message: fmt.Sprintf("elected process type %d is not a dispatcher", maxType),
			Code:    "HANDSHAKE_MISMATCH",
		}
	}
	if ptype == ProcessDispatcher && drank != c.Rank() {
		return roles{}, &ProtocolError{
			Message: fmt.Sprintf("dispatcher rank %d elected rank %d", c.Rank(), drank),
			Code:    "HANDSHAKE_MISMATCH",
		}
	}
	if ptype == ProcessWorker && drank == c.Rank() {
		return roles{}, &ProtocolError{
			Message: fmt.Sprintf("worker rank %d elected itself dispatcher", c.Rank()),
			Code:    "HANDSHAKE_MISMATCH",
		}
	}

	// The root worker is the highest rank that is not the dispatcher.
	rootRank := c.Size() - 1
	if rootRank == drank {
		rootRank--
	}

	color := 0
	if c.Rank() == drank {
		color = 1
	}
	sub, err := c.Split(color)
	if err != nil {
		return roles{}, fmt.Errorf("handshake split: %w", err)
	}

	// Tell every rank the root worker's rank inside the worker
	// sub-communicator. The dispatcher participates in the broadcast
	// even though it does not use the value.
	var payload []float64
	if c.Rank() == rootRank {
		payload = []float64{float64(sub.Rank())}
	}
	out, err := c.Bcast(payload, rootRank)
	if err != nil {
		return roles{}, fmt.Errorf("handshake root broadcast: %w", err)
	}
	if len(out) != 1 {
		return roles{}, &ProtocolError{
			Message: fmt.Sprintf("root worker broadcast carried %d values, want 1", len(out)),
			Code:    "HANDSHAKE_MISMATCH",
		}
	}

	return roles{
		dispatcherRank:    drank,
		rootWorkerRank:    rootRank,
		rootWorkerSubRank: int(out[0]),
		subComm:           sub,
	}, nil
}

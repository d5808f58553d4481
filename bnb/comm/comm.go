// Package comm abstracts the message-passing fabric that connects the
// dispatcher and worker processes.
//
// The interface mirrors the small slice of a collective fabric the solver
// actually uses: rank-addressed sends and receives matched by numeric tag,
// a probe for the next pending message, and the coarse collectives
// (barrier, broadcast, all-reduce, split) that the role handshake and
// finalize depend on.
//
// Two send flavors exist. Send and SendBytes complete as soon as the
// message is enqueued at the destination. Ssend and SsendBytes are
// rendezvous sends: they do not return until the receiver has matched the
// message with a receive. The dispatcher protocol relies on rendezvous
// semantics for barrier, solve-finished, and log messages, so a Comm
// implementation must provide real rendezvous here, not buffering.
package comm

import "errors"

// AnySource matches messages from every rank in Probe and Recv.
const AnySource = -1

// AnyTag matches messages with every tag in Probe and Recv.
const AnyTag = -1

// ErrFreed is returned by operations on a communicator after Free.
var ErrFreed = errors.New("comm: communicator has been freed")

// Status describes a pending message found by Probe.
type Status struct {
	// Source is the rank the message was sent from.
	Source int

	// Tag is the numeric tag the sender attached.
	Tag int
}

// Comm is a communicator handle: a process's membership in a group of
// ranks that can exchange messages and run collectives.
//
// All methods block. Message order is non-overtaking per (source, tag)
// pair: two messages sent from the same rank with the same tag are
// received in send order. Messages with different tags from the same
// source carry no relative ordering guarantee.
//
// A Comm handle belongs to a single process and is not safe for
// concurrent use from multiple goroutines.
type Comm interface {
	// Rank returns this process's rank within the group, in [0, Size).
	Rank() int

	// Size returns the number of ranks in the group.
	Size() int

	// Send delivers a float64 payload to dest with the given tag.
	// The payload may be empty. Send returns once the message is
	// enqueued at the destination.
	Send(data []float64, dest, tag int) error

	// Ssend is Send with rendezvous semantics: it returns only after
	// the destination has matched the message with a receive.
	Ssend(data []float64, dest, tag int) error

	// SendBytes delivers a raw byte payload (log text, zero-payload
	// control messages) to dest with the given tag.
	SendBytes(data []byte, dest, tag int) error

	// SsendBytes is SendBytes with rendezvous semantics.
	SsendBytes(data []byte, dest, tag int) error

	// Probe blocks until a message is pending for this rank and
	// returns its envelope without consuming it. The next Recv or
	// RecvBytes for the returned (source, tag) consumes that message.
	Probe() (Status, error)

	// Recv consumes the earliest pending float64 message matching
	// source and tag. AnySource and AnyTag act as wildcards.
	Recv(source, tag int) ([]float64, error)

	// RecvBytes consumes the earliest pending byte message matching
	// source and tag.
	RecvBytes(source, tag int) ([]byte, error)

	// Barrier blocks until every rank in the group has entered it.
	Barrier() error

	// Bcast distributes root's payload to every rank. The root passes
	// the data to send; other ranks pass nil and receive a copy.
	Bcast(data []float64, root int) ([]float64, error)

	// AllreduceSum sums value across all ranks and returns the total
	// on every rank.
	AllreduceSum(value int) (int, error)

	// AllreduceMaxLoc returns the maximum value across all ranks
	// together with the lowest rank holding it.
	AllreduceMaxLoc(value int) (max, rank int, err error)

	// Split partitions the group by color. Every rank must call Split;
	// ranks that passed the same color form a new group, with new ranks
	// assigned in order of their rank in the parent group.
	Split(color int) (Comm, error)

	// Free releases the communicator. Further operations return
	// ErrFreed. Freeing the world communicator is a no-op for the
	// underlying fabric but still invalidates the handle.
	Free() error

	// Wtime returns elapsed wall-clock seconds from an arbitrary fixed
	// point in the past, suitable for interval measurement.
	Wtime() float64
}

package bnb

import (
	"fmt"
	"math"
)

// nodeHeaderLen is the number of float64 slots in a serialized node
// before the problem-specific payload begins.
const nodeHeaderLen = 4

// Header slot offsets within a serialized node.
const (
	slotBestObjective = 0
	slotBound         = 1
	slotTreeDepth     = 2
	slotQueuePriority = 3
)

// maxExactInt is the largest integer a float64 represents exactly.
// Integer-valued fields of the wire format must round-trip through
// float64 without loss, so values past this are rejected.
const maxExactInt = int64(1) << 53

// Node is a frontier item: one unexplored subproblem of the search tree.
//
// The dispatcher treats the problem-specific State as opaque; only the
// header fields participate in queue ordering and pruning. A Node has a
// single holder at every moment — it is handed whole between worker and
// dispatcher and is never shared.
type Node struct {
	// BestObjective is the incumbent snapshot taken when the node was
	// enqueued. The dispatcher refreshes it before handing the node
	// back out as work.
	BestObjective float64

	// Bound is the subtree's dual bound: a lower bound when the solve
	// sense is minimize, an upper bound when it is maximize.
	Bound float64

	// TreeDepth is the node's depth in the search tree. Never negative.
	TreeDepth int

	// State is the problem-specific payload, carried verbatim through
	// the dispatcher.
	State []float64

	queuePriority    float64
	hasQueuePriority bool
}

// QueuePriority returns the ordering key assigned to the node and
// whether one has been assigned at all.
func (n *Node) QueuePriority() (float64, bool) {
	return n.queuePriority, n.hasQueuePriority
}

// SetQueuePriority assigns the node's ordering key. The queue strategies
// stamp this before insertion; user code sets it directly only when
// driving a custom-priority queue.
func (n *Node) SetQueuePriority(priority float64) {
	n.queuePriority = priority
	n.hasQueuePriority = true
}

// Marshal serializes the node into a contiguous float64 buffer: the
// four-slot header followed by the payload.
func (n *Node) Marshal() ([]float64, error) {
	if n.TreeDepth < 0 {
		return nil, fmt.Errorf("node: tree depth must be non-negative, got %d", n.TreeDepth)
	}
	if int64(n.TreeDepth) > maxExactInt {
		return nil, fmt.Errorf("node: tree depth %d exceeds exact float64 range", n.TreeDepth)
	}
	buf := make([]float64, nodeHeaderLen+len(n.State))
	buf[slotBestObjective] = n.BestObjective
	buf[slotBound] = n.Bound
	buf[slotTreeDepth] = float64(n.TreeDepth)
	buf[slotQueuePriority] = n.queuePriority
	copy(buf[nodeHeaderLen:], n.State)
	return buf, nil
}

// UnmarshalNode reconstructs a node from a serialized buffer.
func UnmarshalNode(buf []float64) (*Node, error) {
	if len(buf) < nodeHeaderLen {
		return nil, &ProtocolError{
			Message: fmt.Sprintf("node buffer too short: %d slots, need at least %d", len(buf), nodeHeaderLen),
			Code:    "BAD_FRAME",
		}
	}
	depth := buf[slotTreeDepth]
	if depth < 0 || depth != math.Trunc(depth) {
		return nil, &ProtocolError{
			Message: fmt.Sprintf("node tree depth slot holds %v, want a non-negative integer", depth),
			Code:    "BAD_FRAME",
		}
	}
	n := &Node{
		BestObjective:    buf[slotBestObjective],
		Bound:            buf[slotBound],
		TreeDepth:        int(depth),
		queuePriority:    buf[slotQueuePriority],
		hasQueuePriority: true,
		State:            append([]float64(nil), buf[nodeHeaderLen:]...),
	}
	return n, nil
}

// ExtractBestObjective reads the embedded best objective out of a
// serialized node without unpacking the rest. The worker uses this on
// work responses to pick up incumbent improvements piggybacked by the
// dispatcher.
func ExtractBestObjective(buf []float64) (float64, error) {
	if len(buf) < nodeHeaderLen {
		return 0, &ProtocolError{
			Message: fmt.Sprintf("node buffer too short: %d slots, need at least %d", len(buf), nodeHeaderLen),
			Code:    "BAD_FRAME",
		}
	}
	return buf[slotBestObjective], nil
}

package bnb

import (
	"fmt"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// boundKey orders the secondary index. The signed bound puts the
// weakest bound first regardless of sense; the insertion counter makes
// keys unique across duplicate bounds and is the exact handle used to
// delete a node's companion entry in O(log n).
type boundKey struct {
	signed float64
	cnt    uint64
}

func compareBoundKeys(a, b interface{}) int {
	ka := a.(boundKey)
	kb := b.(boundKey)
	switch {
	case ka.signed < kb.signed:
		return -1
	case ka.signed > kb.signed:
		return 1
	case ka.cnt < kb.cnt:
		return -1
	case ka.cnt > kb.cnt:
		return 1
	default:
		return 0
	}
}

// CustomPriorityQueue orders the frontier by a caller-assigned priority
// while still answering weakest-bound queries in O(log n). Ordering and
// bound are decoupled: the primary heap is keyed on the node's
// QueuePriority, and a red-black tree keyed on (signed bound, counter)
// tracks the same population sorted by bound.
//
// Both structures hold exactly the same counters at every externally
// observable moment; a divergence is a bug and trips a panic rather
// than returning a wrong bound.
type CustomPriorityQueue struct {
	best      float64
	converger Converger
	queue     maxPriorityFirstQueue
	byBound   *redblacktree.Tree
}

var _ PriorityQueue = (*CustomPriorityQueue)(nil)

// NewCustomPriorityQueue creates a custom-priority frontier starting
// from the given incumbent. Nodes must carry a queue priority before
// insertion.
func NewCustomPriorityQueue(best float64, converger Converger) *CustomPriorityQueue {
	return &CustomPriorityQueue{
		best:      best,
		converger: converger,
		byBound:   redblacktree.NewWith(compareBoundKeys),
	}
}

func (q *CustomPriorityQueue) signedBound(bound float64) float64 {
	if q.converger.Sense() == Maximize {
		return -bound
	}
	return bound
}

// Size implements PriorityQueue.
func (q *CustomPriorityQueue) Size() int { return q.queue.size() }

// Put implements PriorityQueue. The node must already carry a queue
// priority; inserting one without is a caller bug.
func (q *CustomPriorityQueue) Put(node *Node) bool {
	if node == nil {
		panic("bnb: nil node inserted into priority queue")
	}
	priority, has := node.QueuePriority()
	if !has {
		panic("bnb: node inserted into custom queue without a queue priority")
	}
	if !q.converger.ObjectiveCanImprove(q.best, node.Bound) {
		return false
	}
	cnt := q.queue.put(node, priority)
	q.byBound.Put(boundKey{signed: q.signedBound(node.Bound), cnt: cnt}, node)
	return true
}

// Get implements PriorityQueue.
func (q *CustomPriorityQueue) Get() *Node {
	e, ok := q.queue.next()
	if !ok {
		return nil
	}
	node := q.queue.get()
	q.byBound.Remove(boundKey{signed: q.signedBound(node.Bound), cnt: e.cnt})
	return node
}

// Bound implements PriorityQueue.
func (q *CustomPriorityQueue) Bound() (float64, bool) {
	if q.queue.size() != q.byBound.Size() {
		panic(fmt.Sprintf("bnb: custom queue indices diverged: heap %d, bound index %d", q.queue.size(), q.byBound.Size()))
	}
	left := q.byBound.Left()
	if left == nil {
		return 0, false
	}
	key := left.Key.(boundKey)
	if q.converger.Sense() == Maximize {
		return -key.signed, true
	}
	return key.signed, true
}

// UpdateForBestObjective implements PriorityQueue.
func (q *CustomPriorityQueue) UpdateForBestObjective(best float64) []*Node {
	q.best = best
	removed := q.queue.filter(func(_ float64, node *Node) bool {
		return q.converger.ObjectiveCanImprove(best, node.Bound)
	})
	out := make([]*Node, len(removed))
	for i, e := range removed {
		q.byBound.Remove(boundKey{signed: q.signedBound(e.node.Bound), cnt: e.cnt})
		out[i] = e.node
	}
	return out
}

// Items implements PriorityQueue.
func (q *CustomPriorityQueue) Items() []*Node { return q.queue.items() }

// BreadthFirstQueue serves nodes shallowest-first by deriving the queue
// priority from the tree depth.
type BreadthFirstQueue struct {
	*CustomPriorityQueue
}

var _ PriorityQueue = (*BreadthFirstQueue)(nil)

// NewBreadthFirstQueue creates a breadth-first frontier starting from
// the given incumbent.
func NewBreadthFirstQueue(best float64, converger Converger) *BreadthFirstQueue {
	return &BreadthFirstQueue{NewCustomPriorityQueue(best, converger)}
}

// Put implements PriorityQueue, stamping priority -depth so shallower
// nodes drain first.
func (q *BreadthFirstQueue) Put(node *Node) bool {
	if node == nil {
		panic("bnb: nil node inserted into priority queue")
	}
	if node.TreeDepth < 0 {
		panic(fmt.Sprintf("bnb: node tree depth must be non-negative, got %d", node.TreeDepth))
	}
	node.SetQueuePriority(-float64(node.TreeDepth))
	return q.CustomPriorityQueue.Put(node)
}

// DepthFirstQueue serves nodes deepest-first by deriving the queue
// priority from the tree depth.
type DepthFirstQueue struct {
	*CustomPriorityQueue
}

var _ PriorityQueue = (*DepthFirstQueue)(nil)

// NewDepthFirstQueue creates a depth-first frontier starting from the
// given incumbent.
func NewDepthFirstQueue(best float64, converger Converger) *DepthFirstQueue {
	return &DepthFirstQueue{NewCustomPriorityQueue(best, converger)}
}

// Put implements PriorityQueue, stamping priority +depth so deeper
// nodes drain first.
func (q *DepthFirstQueue) Put(node *Node) bool {
	if node == nil {
		panic("bnb: nil node inserted into priority queue")
	}
	if node.TreeDepth < 0 {
		panic(fmt.Sprintf("bnb: node tree depth must be non-negative, got %d", node.TreeDepth))
	}
	node.SetQueuePriority(float64(node.TreeDepth))
	return q.CustomPriorityQueue.Put(node)
}

// QueueStrategy selects a frontier ordering for NewQueue.
type QueueStrategy int

const (
	// WorstBoundFirst drains the weakest bound first.
	WorstBoundFirst QueueStrategy = iota

	// CustomPriority drains by caller-assigned priority.
	CustomPriority

	// BreadthFirst drains shallowest nodes first.
	BreadthFirst

	// DepthFirst drains deepest nodes first.
	DepthFirst
)

// String returns the strategy name.
func (s QueueStrategy) String() string {
	switch s {
	case WorstBoundFirst:
		return "worst-bound-first"
	case CustomPriority:
		return "custom"
	case BreadthFirst:
		return "breadth-first"
	case DepthFirst:
		return "depth-first"
	default:
		return fmt.Sprintf("QueueStrategy(%d)", int(s))
	}
}

// NewQueue constructs the frontier for the given strategy.
func NewQueue(strategy QueueStrategy, best float64, converger Converger) (PriorityQueue, error) {
	switch strategy {
	case WorstBoundFirst:
		return NewWorstBoundFirstQueue(best, converger), nil
	case CustomPriority:
		return NewCustomPriorityQueue(best, converger), nil
	case BreadthFirst:
		return NewBreadthFirstQueue(best, converger), nil
	case DepthFirst:
		return NewDepthFirstQueue(best, converger), nil
	default:
		return nil, fmt.Errorf("bnb: unknown queue strategy %d", int(strategy))
	}
}

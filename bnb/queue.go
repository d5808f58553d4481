package bnb

import (
	"container/heap"
	"fmt"
)

// The priority queues in this file and in queue_custom.go are owned by
// the single-threaded dispatcher process and are deliberately NOT safe
// for concurrent use. The non-threading assumption is load-bearing: the
// insertion counter, the primary heap, and the secondary bound index are
// mutated together with no internal locking.

// PriorityQueue is the contract shared by every frontier ordering
// strategy. Implementations never store a nil node.
type PriorityQueue interface {
	// Size returns the number of queued nodes.
	Size() int

	// Put inserts the node if its bound can still improve the current
	// incumbent, and reports whether the insertion happened. A false
	// return is a normal outcome (the node was pruned), not an error.
	Put(node *Node) bool

	// Get removes and returns the highest-priority node, with ties
	// broken by insertion order. It returns nil when the queue is
	// empty.
	Get() *Node

	// Bound returns the weakest bound over all queued nodes, i.e. the
	// most optimistic claim any queued subtree still makes. The second
	// return is false when the queue is empty.
	Bound() (float64, bool)

	// UpdateForBestObjective installs a new incumbent and removes
	// every node whose bound can no longer improve it. Removed nodes
	// are returned in no particular order.
	UpdateForBestObjective(best float64) []*Node

	// Items returns the queued nodes in arbitrary order without
	// modifying the queue.
	Items() []*Node
}

// heapEntry is one element of the primary heap: the ordering key, the
// insertion counter that breaks ties and serves as the removal handle
// for the secondary index, and the node itself.
type heapEntry struct {
	priority float64
	cnt      uint64
	node     *Node
}

type entryHeap []heapEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	// Max-heap on priority; equal priorities drain in insertion order.
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].cnt < h[j].cnt
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// maxPriorityFirstQueue is the primary ordering structure: a max-heap on
// an arbitrary float64 priority with FIFO tie-break. Every insertion is
// tagged with a strictly increasing counter that is never reused; the
// counter doubles as the exact handle the custom queues need to remove
// the companion entry from their secondary index.
type maxPriorityFirstQueue struct {
	count uint64
	heap  entryHeap
}

func (q *maxPriorityFirstQueue) size() int { return len(q.heap) }

// put inserts the node with the given priority and returns the counter
// assigned to it. A nil node or a counter past the exact float64 range
// is a caller bug.
func (q *maxPriorityFirstQueue) put(node *Node, priority float64) uint64 {
	if node == nil {
		panic("bnb: nil node inserted into priority queue")
	}
	if q.count >= uint64(maxExactInt) {
		panic(fmt.Sprintf("bnb: insertion counter exhausted at %d", q.count))
	}
	cnt := q.count
	q.count++
	heap.Push(&q.heap, heapEntry{priority: priority, cnt: cnt, node: node})
	return cnt
}

// get removes and returns the highest-priority node, or nil when empty.
func (q *maxPriorityFirstQueue) get() *Node {
	if len(q.heap) == 0 {
		return nil
	}
	return heap.Pop(&q.heap).(heapEntry).node
}

// next returns the entry that get would remove, without removing it.
// The boolean is false when the queue is empty.
func (q *maxPriorityFirstQueue) next() (heapEntry, bool) {
	if len(q.heap) == 0 {
		return heapEntry{}, false
	}
	return q.heap[0], true
}

// filter removes every entry for which keep returns false and returns
// the removed entries. Surviving entries keep their counters; the heap
// is rebuilt in place.
func (q *maxPriorityFirstQueue) filter(keep func(priority float64, node *Node) bool) []heapEntry {
	kept := q.heap[:0]
	var removed []heapEntry
	for _, e := range q.heap {
		if keep(e.priority, e.node) {
			kept = append(kept, e)
		} else {
			removed = append(removed, e)
		}
	}
	q.heap = kept
	heap.Init(&q.heap)
	return removed
}

// items returns the queued nodes in heap-internal order.
func (q *maxPriorityFirstQueue) items() []*Node {
	out := make([]*Node, len(q.heap))
	for i, e := range q.heap {
		out[i] = e.node
	}
	return out
}

// WorstBoundFirstQueue orders the frontier so the subtree with the
// weakest bound is explored first. Draining weakest-first drives the
// global bound monotonically and is the strategy that proves optimality
// fastest.
type WorstBoundFirstQueue struct {
	best      float64
	converger Converger
	queue     maxPriorityFirstQueue
}

var _ PriorityQueue = (*WorstBoundFirstQueue)(nil)

// NewWorstBoundFirstQueue creates a worst-bound-first frontier starting
// from the given incumbent.
func NewWorstBoundFirstQueue(best float64, converger Converger) *WorstBoundFirstQueue {
	return &WorstBoundFirstQueue{best: best, converger: converger}
}

// Size implements PriorityQueue.
func (q *WorstBoundFirstQueue) Size() int { return q.queue.size() }

// Put implements PriorityQueue. The ordering key is derived from the
// bound — negated under minimize so the weakest (largest-gap) subtree
// sits at the top of the max-heap — and stamped back onto the node so a
// receiving worker can recover it.
func (q *WorstBoundFirstQueue) Put(node *Node) bool {
	if node == nil {
		panic("bnb: nil node inserted into priority queue")
	}
	if !q.converger.ObjectiveCanImprove(q.best, node.Bound) {
		return false
	}
	priority := node.Bound
	if q.converger.Sense() == Minimize {
		priority = -node.Bound
	}
	node.SetQueuePriority(priority)
	q.queue.put(node, priority)
	return true
}

// Get implements PriorityQueue.
func (q *WorstBoundFirstQueue) Get() *Node { return q.queue.get() }

// Bound implements PriorityQueue. The stored priority is checked against
// the node's bound at peek time; a mismatch means the node was mutated
// while queued, which the single-holder ownership rule forbids.
func (q *WorstBoundFirstQueue) Bound() (float64, bool) {
	e, ok := q.queue.next()
	if !ok {
		return 0, false
	}
	bound := e.node.Bound
	want := bound
	if q.converger.Sense() == Minimize {
		want = -bound
	}
	if priority, has := e.node.QueuePriority(); !has || priority != want {
		panic(fmt.Sprintf("bnb: queued node priority %v inconsistent with bound %v", e.priority, bound))
	}
	return bound, true
}

// UpdateForBestObjective implements PriorityQueue.
func (q *WorstBoundFirstQueue) UpdateForBestObjective(best float64) []*Node {
	q.best = best
	removed := q.queue.filter(func(_ float64, node *Node) bool {
		return q.converger.ObjectiveCanImprove(best, node.Bound)
	})
	out := make([]*Node, len(removed))
	for i, e := range removed {
		out[i] = e.node
	}
	return out
}

// Items implements PriorityQueue.
func (q *WorstBoundFirstQueue) Items() []*Node { return q.queue.items() }

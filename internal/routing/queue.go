package routing

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// QueueEntry wraps a routable item reference with its queue sort key.
type QueueEntry struct {
	ItemID     string
	Priority   int
	EnqueuedAt time.Time
}

// AssignmentQueue is the ordered waiting list of unassigned items. Higher
// priority is served first; equal priorities drain in FIFO order. The
// in-memory implementation backs tests and single-instance deployments; the
// Redis implementation backs multi-instance deployments.
type AssignmentQueue interface {
	// Enqueue inserts the entry. Enqueueing an item that is already queued
	// updates its priority in place, keeping its original FIFO position
	// within the new priority band.
	Enqueue(ctx context.Context, entry QueueEntry) error
	// PeekNext returns the highest-priority entry without removing it, or
	// nil when the queue is empty.
	PeekNext(ctx context.Context) (*QueueEntry, error)
	// Dequeue removes and returns PeekNext's result.
	Dequeue(ctx context.Context) (*QueueEntry, error)
	// Remove drops a specific item; reports whether it was present.
	Remove(ctx context.Context, itemID string) (bool, error)
	// Contains reports whether the item is queued, at any position.
	Contains(ctx context.Context, itemID string) (bool, error)
	// Len returns the number of queued entries.
	Len(ctx context.Context) (int, error)
}

type memoryEntry struct {
	QueueEntry
	seq   uint64
	index int
}

// MemoryQueue is a mutex-guarded binary heap. All mutating operations are
// serialized so the ordering invariant is never observed torn.
type MemoryQueue struct {
	mu      sync.Mutex
	entries entryHeap
	byID    map[string]*memoryEntry
	nextSeq uint64
}

// NewMemoryQueue creates an empty in-memory assignment queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{byID: make(map[string]*memoryEntry)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, entry QueueEntry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if existing, ok := q.byID[entry.ItemID]; ok {
		existing.Priority = entry.Priority
		heap.Fix(&q.entries, existing.index)
		return nil
	}
	e := &memoryEntry{QueueEntry: entry, seq: q.nextSeq}
	q.nextSeq++
	q.byID[entry.ItemID] = e
	heap.Push(&q.entries, e)
	return nil
}

func (q *MemoryQueue) PeekNext(_ context.Context) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, nil
	}
	head := q.entries[0].QueueEntry
	return &head, nil
}

func (q *MemoryQueue) Dequeue(_ context.Context) (*QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, nil
	}
	e := heap.Pop(&q.entries).(*memoryEntry)
	delete(q.byID, e.ItemID)
	head := e.QueueEntry
	return &head, nil
}

func (q *MemoryQueue) Remove(_ context.Context, itemID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[itemID]
	if !ok {
		return false, nil
	}
	heap.Remove(&q.entries, e.index)
	delete(q.byID, itemID)
	return true, nil
}

func (q *MemoryQueue) Contains(_ context.Context, itemID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[itemID]
	return ok, nil
}

func (q *MemoryQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries), nil
}

type entryHeap []*memoryEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*memoryEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

package routing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enqueueAll(t *testing.T, q AssignmentQueue, entries ...QueueEntry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, q.Enqueue(context.Background(), e))
	}
}

func TestMemoryQueueOrdersByPriorityThenFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	now := time.Now()

	enqueueAll(t, q,
		QueueEntry{ItemID: "medium-1", Priority: 20, EnqueuedAt: now},
		QueueEntry{ItemID: "low-1", Priority: 10, EnqueuedAt: now},
		QueueEntry{ItemID: "urgent-1", Priority: 40, EnqueuedAt: now},
		QueueEntry{ItemID: "medium-2", Priority: 20, EnqueuedAt: now},
		QueueEntry{ItemID: "high-1", Priority: 30, EnqueuedAt: now},
	)

	var drained []string
	for {
		entry, err := q.Dequeue(ctx)
		require.NoError(t, err)
		if entry == nil {
			break
		}
		drained = append(drained, entry.ItemID)
	}
	assert.Equal(t, []string{"urgent-1", "high-1", "medium-1", "medium-2", "low-1"}, drained)
}

func TestMemoryQueuePeekDoesNotRemove(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	enqueueAll(t, q, QueueEntry{ItemID: "a", Priority: 20})

	first, err := q.PeekNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "a", first.ItemID)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryQueuePeekEmptyReturnsNil(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	entry, err := q.PeekNext(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

// Re-enqueueing an already queued item updates its priority in place and
// keeps its arrival order among entries that end up in the same band.
func TestMemoryQueueEnqueueUpsertsPriority(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	enqueueAll(t, q,
		QueueEntry{ItemID: "first", Priority: 20},
		QueueEntry{ItemID: "second", Priority: 20},
	)

	// Elevate the later arrival above the band.
	enqueueAll(t, q, QueueEntry{ItemID: "second", Priority: 70})

	head, err := q.PeekNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "second", head.ItemID)
	assert.Equal(t, 70, head.Priority)

	// Elevating the earlier arrival to the same band restores FIFO order.
	enqueueAll(t, q, QueueEntry{ItemID: "first", Priority: 70})
	head, err = q.PeekNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "first", head.ItemID)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryQueueRemove(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	enqueueAll(t, q,
		QueueEntry{ItemID: "a", Priority: 40},
		QueueEntry{ItemID: "b", Priority: 20},
	)

	removed, err := q.Remove(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)

	// Removal is idempotent.
	removed, err = q.Remove(ctx, "a")
	require.NoError(t, err)
	assert.False(t, removed)

	head, err := q.PeekNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "b", head.ItemID)
}

func TestMemoryQueueContains(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	enqueueAll(t, q,
		QueueEntry{ItemID: "head", Priority: 90},
		QueueEntry{ItemID: "buried", Priority: 10},
	)

	// Membership is positional-independent; a non-head entry still reports true.
	for _, id := range []string{"head", "buried"} {
		ok, err := q.Contains(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}

	ok, err := q.Contains(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = q.Remove(ctx, "buried")
	require.NoError(t, err)
	ok, err = q.Contains(ctx, "buried")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryQueueConcurrentEnqueue(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = q.Enqueue(ctx, QueueEntry{
					ItemID:   fmt.Sprintf("w%d-i%d", worker, j),
					Priority: 10 * (1 + j%4),
				})
			}
		}(i)
	}
	wg.Wait()

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, n)

	// Drain order must be non-increasing in priority.
	prev := int(^uint(0) >> 1)
	for {
		entry, err := q.Dequeue(ctx)
		require.NoError(t, err)
		if entry == nil {
			break
		}
		assert.LessOrEqual(t, entry.Priority, prev)
		prev = entry.Priority
	}
}

package routing

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis sorted-set scores encode priority and FIFO order in one float:
// priority*prioritySpan - millisSinceBaseEpoch. Higher priority always wins
// and, within one priority, earlier enqueue yields the larger score. The
// epoch offset keeps the time component below prioritySpan for decades, so
// priority bands never overlap and both fields decode exactly.
const (
	prioritySpan = 1e12
	baseEpochMs  = 1704067200000 // 2024-01-01T00:00:00Z
)

// RedisQueue is a Redis-backed AssignmentQueue for multi-instance
// deployments. Ordering mutations are single Redis commands and therefore
// atomic across instances.
type RedisQueue struct {
	client *redis.Client
	zkey   string
	mkey   string
	clock  Clock
}

type redisEntry struct {
	ItemID     string    `json:"item_id"`
	Priority   int       `json:"priority"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRedisQueue creates a queue over the given client. All instances sharing
// the same key prefix observe one queue.
func NewRedisQueue(client *redis.Client, keyPrefix string, clock Clock) *RedisQueue {
	if keyPrefix == "" {
		keyPrefix = "routing:queue"
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &RedisQueue{
		client: client,
		zkey:   keyPrefix,
		mkey:   keyPrefix + ":meta",
		clock:  clock,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, entry QueueEntry) error {
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = q.clock.Now()
	}
	// Re-enqueue keeps the original FIFO position within the new band.
	if raw, err := q.client.HGet(ctx, q.mkey, entry.ItemID).Result(); err == nil {
		var existing redisEntry
		if json.Unmarshal([]byte(raw), &existing) == nil && !existing.EnqueuedAt.IsZero() {
			entry.EnqueuedAt = existing.EnqueuedAt
		}
	} else if err != redis.Nil {
		return err
	}

	meta, err := json.Marshal(redisEntry{
		ItemID:     entry.ItemID,
		Priority:   entry.Priority,
		EnqueuedAt: entry.EnqueuedAt,
	})
	if err != nil {
		return err
	}

	pipe := q.client.TxPipeline()
	pipe.ZAdd(ctx, q.zkey, redis.Z{
		Score:  scoreFor(entry.Priority, entry.EnqueuedAt),
		Member: entry.ItemID,
	})
	pipe.HSet(ctx, q.mkey, entry.ItemID, meta)
	_, err = pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) PeekNext(ctx context.Context) (*QueueEntry, error) {
	members, err := q.client.ZRevRangeWithScores(ctx, q.zkey, 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	id, _ := members[0].Member.(string)
	return q.loadEntry(ctx, id, members[0].Score)
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*QueueEntry, error) {
	members, err := q.client.ZPopMax(ctx, q.zkey, 1).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	id, _ := members[0].Member.(string)
	entry, err := q.loadEntry(ctx, id, members[0].Score)
	if err != nil {
		return nil, err
	}
	q.client.HDel(ctx, q.mkey, id)
	return entry, nil
}

func (q *RedisQueue) Remove(ctx context.Context, itemID string) (bool, error) {
	removed, err := q.client.ZRem(ctx, q.zkey, itemID).Result()
	if err != nil {
		return false, err
	}
	q.client.HDel(ctx, q.mkey, itemID)
	return removed > 0, nil
}

func (q *RedisQueue) Contains(ctx context.Context, itemID string) (bool, error) {
	if err := q.client.ZScore(ctx, q.zkey, itemID).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.ZCard(ctx, q.zkey).Result()
	return int(n), err
}

func (q *RedisQueue) loadEntry(ctx context.Context, itemID string, score float64) (*QueueEntry, error) {
	raw, err := q.client.HGet(ctx, q.mkey, itemID).Result()
	if err == nil {
		var e redisEntry
		if json.Unmarshal([]byte(raw), &e) == nil {
			return &QueueEntry{ItemID: e.ItemID, Priority: e.Priority, EnqueuedAt: e.EnqueuedAt}, nil
		}
	} else if err != redis.Nil {
		return nil, err
	}
	// Meta lost (e.g. concurrent dequeue on another instance); the score
	// still carries priority and enqueue time.
	priority := int(math.Ceil(score / prioritySpan))
	offset := int64(float64(priority)*prioritySpan - score)
	return &QueueEntry{
		ItemID:     itemID,
		Priority:   priority,
		EnqueuedAt: time.UnixMilli(baseEpochMs + offset),
	}, nil
}

func scoreFor(priority int, enqueuedAt time.Time) float64 {
	return float64(priority)*prioritySpan - float64(enqueuedAt.UnixMilli()-baseEpochMs)
}

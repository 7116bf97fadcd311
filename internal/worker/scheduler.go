// Package worker owns the periodic loops of the routing core: the queue
// draining tick and the escalation scan. Both run on fixed intervals; event
// latency is bounded by the interval, which is an accepted trade-off for
// determinism.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// Task is one periodic unit of work.
type Task func(ctx context.Context) error

// Scheduler drives named tasks on fixed intervals. Consecutive failures of
// a task stretch its next run by an exponential backoff on top of the base
// interval; a success resets the backoff.
type Scheduler struct {
	logger *zap.Logger

	mu    sync.Mutex
	loops []loop
	wg    sync.WaitGroup
}

type loop struct {
	name     string
	interval time.Duration
	task     Task
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Register adds a periodic task. Must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loops = append(s.loops, loop{name: name, interval: interval, task: task})
}

// Start launches one goroutine per registered task. The loops stop when ctx
// is cancelled; Wait blocks until they exit.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	loops := append([]loop{}, s.loops...)
	s.mu.Unlock()

	for _, l := range loops {
		s.wg.Add(1)
		go s.run(ctx, l)
	}
}

// Wait blocks until every loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, l loop) {
	defer s.wg.Done()

	b := &backoff.Backoff{
		Min:    l.interval,
		Max:    10 * l.interval,
		Factor: 2,
	}
	delay := l.interval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if err := l.task(ctx); err != nil {
			delay = b.Duration()
			s.logger.Warn("scheduled task failed",
				zap.String("task", l.name),
				zap.Duration("next_in", delay),
				zap.Error(err))
			continue
		}
		b.Reset()
		delay = l.interval
	}
}

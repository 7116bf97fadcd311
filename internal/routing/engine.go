package routing

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-service/internal/domain"
	"github.com/spec-kit/routing-service/internal/events"
	"github.com/spec-kit/routing-service/internal/observability"
	"github.com/spec-kit/routing-service/internal/repository"
	"github.com/spec-kit/routing-service/internal/sla"
	apperrors "github.com/spec-kit/routing-service/pkg/util"
)

// Queue priority bands. Breached items outrank reassigned items, which
// outrank fresh enqueues of the same ticket priority.
const (
	priorityLow    = 10
	priorityMedium = 20
	priorityHigh   = 30
	priorityUrgent = 40

	reassignBoost = 25
	breachBoost   = 50
)

// SettingsProvider supplies the singleton routing and SLA configuration.
type SettingsProvider interface {
	RoutingConfig(ctx context.Context) (domain.RoutingConfig, error)
	SLAConfig(ctx context.Context) (domain.SLAConfig, error)
}

// Engine orchestrates queue draining: it pulls the next waiting item, ranks
// the available agents, and performs transactional assignment.
type Engine struct {
	queue      AssignmentQueue
	agents     repository.AgentRepository
	items      repository.ItemRepository
	history    repository.ResolutionHistoryRepository
	settings   SettingsProvider
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	clock      Clock

	// tickGuard holds a single token so at most one Tick is in flight;
	// overlapping invocations return immediately instead of blocking.
	tickGuard chan struct{}
}

// EngineDependencies bundles collaborators.
type EngineDependencies struct {
	Queue      AssignmentQueue
	AgentRepo  repository.AgentRepository
	ItemRepo   repository.ItemRepository
	HistRepo   repository.ResolutionHistoryRepository
	Settings   SettingsProvider
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      Clock
}

// NewEngine creates the routing engine.
func NewEngine(deps EngineDependencies) *Engine {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	guard := make(chan struct{}, 1)
	guard <- struct{}{}
	return &Engine{
		queue:      deps.Queue,
		agents:     deps.AgentRepo,
		items:      deps.ItemRepo,
		history:    deps.HistRepo,
		settings:   deps.Settings,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		clock:      deps.Clock,
		tickGuard:  guard,
	}
}

// BasePriority maps a ticket priority to its queue band.
func BasePriority(p domain.ItemPriority) int {
	switch p {
	case domain.ItemPriorityUrgent:
		return priorityUrgent
	case domain.ItemPriorityHigh:
		return priorityHigh
	case domain.ItemPriorityMedium:
		return priorityMedium
	default:
		return priorityLow
	}
}

// RequestAssignment enqueues the item for routing. When smart routing is
// disabled it returns false and leaves the item for manual assignment.
// Items that already breached their response SLA enter at an elevated
// priority so they do not starve behind fresh work.
func (e *Engine) RequestAssignment(ctx context.Context, item domain.RoutableItem) (bool, error) {
	routingCfg, err := e.settings.RoutingConfig(ctx)
	if err != nil {
		return false, apperrors.NewUnavailable("routing config unavailable", err)
	}
	if !routingCfg.SmartRouting {
		e.logger.Debug("smart routing disabled; item left for manual assignment",
			zap.String("item_id", item.ID))
		return false, nil
	}

	priority := BasePriority(item.Priority)
	boosted := false
	if slaCfg, err := e.settings.SLAConfig(ctx); err == nil {
		if report, err := sla.CheckBreaches(item, slaCfg, e.clock.Now()); err == nil && report.ResponseBreached {
			priority += breachBoost
			boosted = true
		}
	}

	if err := e.queue.Enqueue(ctx, QueueEntry{
		ItemID:     item.ID,
		Priority:   priority,
		EnqueuedAt: e.clock.Now(),
	}); err != nil {
		return false, apperrors.NewUnavailable("enqueue failed", err)
	}
	e.observeQueueDepth(ctx)
	e.publish(ctx, events.EventItemEnqueued, item.ID, events.ItemEnqueuedPayload{
		Priority:      priority,
		ItemPriority:  item.Priority,
		BreachBoosted: boosted,
	})
	return true, nil
}

// Tick drains the queue while eligible agents exist. At most one Tick runs
// at a time; a Tick arriving while another is in flight is a no-op. An item
// is only dequeued after its assignment has been persisted, so a failed
// write leaves the queue intact for the next scheduled attempt.
func (e *Engine) Tick(ctx context.Context) error {
	select {
	case <-e.tickGuard:
		defer func() { e.tickGuard <- struct{}{} }()
	default:
		return nil
	}

	start := e.clock.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
	}()

	cfg, err := e.settings.RoutingConfig(ctx)
	if err != nil {
		return apperrors.NewUnavailable("routing config unavailable", err)
	}
	if !cfg.SmartRouting {
		return nil
	}

	for {
		entry, err := e.queue.PeekNext(ctx)
		if err != nil {
			return apperrors.NewUnavailable("queue peek failed", err)
		}
		if entry == nil {
			return nil
		}

		item, err := e.items.GetByID(ctx, entry.ItemID)
		if err != nil {
			de := apperrors.ToDomainError(err)
			if de.Code == "NOT_FOUND" {
				// Stale queue entry; drop it and keep draining. A failing
				// drop must surface, or the loop would re-peek the same
				// head forever.
				if err := e.dropEntry(ctx, entry.ItemID); err != nil {
					return err
				}
				continue
			}
			return apperrors.NewUnavailable("item read failed", err)
		}
		if !item.Open() || item.Assigned() {
			if err := e.dropEntry(ctx, entry.ItemID); err != nil {
				return err
			}
			continue
		}

		best, ok, err := e.selectAgent(ctx, *item, cfg)
		if err != nil {
			return err
		}
		if !ok {
			// No eligible agent this pass; leave the queue for the next
			// tick rather than busy-looping.
			e.logger.Debug("no agent available", zap.String("item_id", item.ID))
			return nil
		}

		if err := e.assign(ctx, *item, best); err != nil {
			return err
		}
		// The assignment is already persisted; if the dequeue fails the
		// entry is re-seen as assigned next tick and dropped then.
		if err := e.dropEntry(ctx, entry.ItemID); err != nil {
			return err
		}
		e.observeQueueDepth(ctx)
	}
}

// dropEntry removes a queue entry, converting a store failure into the
// transient error the scheduler retries on the next tick.
func (e *Engine) dropEntry(ctx context.Context, itemID string) error {
	if _, err := e.queue.Remove(ctx, itemID); err != nil {
		return apperrors.NewUnavailable("queue remove failed", err)
	}
	return nil
}

type scoredAgent struct {
	agent domain.Agent
	score float64
}

// selectAgent ranks online agents with spare capacity. Ranking follows the
// configured distribution method; ties break by lower load, then agent id.
func (e *Engine) selectAgent(ctx context.Context, item domain.RoutableItem, cfg domain.RoutingConfig) (scoredAgent, bool, error) {
	status := domain.AgentStatusOnline
	agents, err := e.agents.List(ctx, repository.AgentFilter{Status: &status})
	if err != nil {
		return scoredAgent{}, false, apperrors.NewUnavailable("agent directory unavailable", err)
	}

	candidates := make([]scoredAgent, 0, len(agents))
	for _, agent := range agents {
		if agent.AtCapacity(cfg.MaxTicketsPerAgent) {
			continue
		}
		avg, hasHistory, err := e.history.AverageResolutionTime(ctx, agent.ID)
		if err != nil {
			return scoredAgent{}, false, apperrors.NewUnavailable("resolution history unavailable", err)
		}
		candidates = append(candidates, scoredAgent{
			agent: agent,
			score: Score(agent, avg, hasHistory, item, cfg),
		})
	}
	if len(candidates) == 0 {
		return scoredAgent{}, false, nil
	}

	leastLoaded := cfg.DistributionMethod == domain.DistributionLeastLoaded
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if leastLoaded {
			if a.agent.CurrentLoad != b.agent.CurrentLoad {
				return a.agent.CurrentLoad < b.agent.CurrentLoad
			}
			if a.score != b.score {
				return a.score > b.score
			}
			return a.agent.ID < b.agent.ID
		}
		if a.score != b.score {
			return a.score > b.score
		}
		if a.agent.CurrentLoad != b.agent.CurrentLoad {
			return a.agent.CurrentLoad < b.agent.CurrentLoad
		}
		return a.agent.ID < b.agent.ID
	})
	return candidates[0], true, nil
}

// assign persists the assignment before the caller dequeues. A failed load
// increment rolls the assignee back so the item stays queued.
func (e *Engine) assign(ctx context.Context, item domain.RoutableItem, best scoredAgent) error {
	agentID := best.agent.ID
	if err := e.items.SetAssignee(ctx, item.ID, &agentID); err != nil {
		return apperrors.NewUnavailable("assignment write failed", err)
	}
	if err := e.agents.AdjustLoad(ctx, agentID, +1); err != nil {
		if rbErr := e.items.SetAssignee(ctx, item.ID, nil); rbErr != nil {
			e.logger.Error("assignment rollback failed",
				zap.String("item_id", item.ID), zap.Error(rbErr))
		}
		return apperrors.NewUnavailable("load update failed", err)
	}

	if e.metrics != nil {
		e.metrics.Assignments.Inc()
	}
	e.logger.Info("item assigned",
		zap.String("item_id", item.ID),
		zap.String("agent_id", agentID),
		zap.Float64("score", best.score))
	e.publish(ctx, events.EventItemAssigned, item.ID, events.ItemAssignedPayload{
		AgentID: agentID,
		Score:   best.score,
	})
	return nil
}

// OnAgentDisconnect requeues every unresolved item held by the agent at an
// elevated priority and zeroes the agent's tracked load.
func (e *Engine) OnAgentDisconnect(ctx context.Context, agentID string) error {
	items, err := e.items.ListByAssignee(ctx, agentID)
	if err != nil {
		return apperrors.NewUnavailable("assignee listing failed", err)
	}
	for _, item := range items {
		if err := e.requeue(ctx, item, BasePriority(item.Priority)+reassignBoost, "agent_disconnect"); err != nil {
			return err
		}
	}
	if err := e.agents.ResetLoad(ctx, agentID); err != nil {
		return apperrors.NewUnavailable("load reset failed", err)
	}
	if e.metrics != nil {
		e.metrics.Reassignments.Add(float64(len(items)))
	}
	return nil
}

// ReassignItem clears the current assignee and requeues a single item at
// breach priority. This is the SLA-driven override: it applies even when the
// assignee is still online.
func (e *Engine) ReassignItem(ctx context.Context, itemID string) error {
	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !item.Open() {
		return apperrors.NewConflict("item is not open", map[string]any{"item_id": itemID})
	}
	previous := item.AssigneeID
	if err := e.requeue(ctx, *item, BasePriority(item.Priority)+breachBoost, "sla_escalation"); err != nil {
		return err
	}
	if previous != nil {
		if err := e.agents.AdjustLoad(ctx, *previous, -1); err != nil {
			e.logger.Warn("load decrement failed after reassignment",
				zap.String("agent_id", *previous), zap.Error(err))
		}
	}
	if e.metrics != nil {
		e.metrics.Reassignments.Inc()
	}
	return nil
}

// ElevateForBreach raises the queue priority of a still-queued item that
// breached its response SLA, placing it ahead of fresh same-priority work.
func (e *Engine) ElevateForBreach(ctx context.Context, item domain.RoutableItem) error {
	if item.Assigned() {
		return nil
	}
	if err := e.queue.Enqueue(ctx, QueueEntry{
		ItemID:     item.ID,
		Priority:   BasePriority(item.Priority) + breachBoost,
		EnqueuedAt: item.EnqueuedAt,
	}); err != nil {
		return apperrors.NewUnavailable("priority elevation failed", err)
	}
	return nil
}

// Resolve records resolution, releases the assignee's load slot, appends the
// resolution history used by scoring, and drops any still-queued entry.
// Removal is idempotent; resolving an item mid-assignment is an accepted
// race where the resolution simply overrides the fresh assignment.
func (e *Engine) Resolve(ctx context.Context, itemID string, at time.Time) error {
	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if item.Status == domain.ItemStatusResolved {
		return nil
	}
	if err := e.items.RecordResolution(ctx, itemID, at); err != nil {
		return apperrors.NewUnavailable("resolution write failed", err)
	}
	if item.Assigned() {
		agentID := *item.AssigneeID
		if err := e.agents.AdjustLoad(ctx, agentID, -1); err != nil {
			e.logger.Warn("load decrement failed on resolve",
				zap.String("agent_id", agentID), zap.Error(err))
		}
		if err := e.history.Record(ctx, &domain.ResolutionRecord{
			AgentID:    agentID,
			ItemID:     itemID,
			CreatedAt:  item.CreatedAt,
			ResolvedAt: at,
		}); err != nil {
			e.logger.Warn("resolution history write failed",
				zap.String("item_id", itemID), zap.Error(err))
		}
	}
	if _, err := e.queue.Remove(ctx, itemID); err != nil {
		// The stale entry is dropped by a later tick.
		e.logger.Warn("queue remove failed on resolve",
			zap.String("item_id", itemID), zap.Error(err))
	}
	e.observeQueueDepth(ctx)
	return nil
}

// Cancel withdraws an item, removing it from the queue and releasing any
// held load slot.
func (e *Engine) Cancel(ctx context.Context, itemID string) error {
	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !item.Open() {
		return apperrors.NewConflict("item is not open", map[string]any{"item_id": itemID})
	}
	if err := e.items.Cancel(ctx, itemID); err != nil {
		return apperrors.NewUnavailable("cancel write failed", err)
	}
	if item.Assigned() {
		if err := e.agents.AdjustLoad(ctx, *item.AssigneeID, -1); err != nil {
			e.logger.Warn("load decrement failed on cancel",
				zap.String("agent_id", *item.AssigneeID), zap.Error(err))
		}
	}
	if _, err := e.queue.Remove(ctx, itemID); err != nil {
		e.logger.Warn("queue remove failed on cancel",
			zap.String("item_id", itemID), zap.Error(err))
	}
	e.observeQueueDepth(ctx)
	return nil
}

func (e *Engine) requeue(ctx context.Context, item domain.RoutableItem, priority int, reason string) error {
	previous := item.AssigneeID
	if err := e.items.SetAssignee(ctx, item.ID, nil); err != nil {
		return apperrors.NewUnavailable("unassignment write failed", err)
	}
	now := e.clock.Now()
	if err := e.items.SetEnqueuedAt(ctx, item.ID, now); err != nil {
		e.logger.Warn("enqueue timestamp update failed", zap.String("item_id", item.ID), zap.Error(err))
	}
	if err := e.queue.Enqueue(ctx, QueueEntry{
		ItemID:     item.ID,
		Priority:   priority,
		EnqueuedAt: now,
	}); err != nil {
		return apperrors.NewUnavailable("requeue failed", err)
	}
	e.observeQueueDepth(ctx)
	e.publish(ctx, events.EventItemReassigned, item.ID, events.ItemReassignedPayload{
		PreviousAgentID: previous,
		Reason:          reason,
	})
	return nil
}

func (e *Engine) observeQueueDepth(ctx context.Context) {
	if e.metrics == nil {
		return
	}
	if n, err := e.queue.Len(ctx); err == nil {
		e.metrics.QueueDepth.Set(float64(n))
	}
}

func (e *Engine) publish(ctx context.Context, eventType events.EventType, itemID string, payload any) {
	if e.dispatcher == nil {
		return
	}
	_ = e.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ItemID:    itemID,
		Timestamp: e.clock.Now(),
		Payload:   payload,
	})
}

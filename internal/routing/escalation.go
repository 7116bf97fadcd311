package routing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-service/internal/domain"
	"github.com/spec-kit/routing-service/internal/events"
	"github.com/spec-kit/routing-service/internal/observability"
	"github.com/spec-kit/routing-service/internal/repository"
	"github.com/spec-kit/routing-service/internal/sla"
	apperrors "github.com/spec-kit/routing-service/pkg/util"
)

// NotifyKind selects a notification target.
type NotifyKind string

const (
	NotifyManager NotifyKind = "manager"
	NotifyTeam    NotifyKind = "team"
)

// Notifier is the fire-and-forget notification sink. Delivery failures are
// the sink's problem, not the monitor's.
type Notifier interface {
	Notify(ctx context.Context, kind NotifyKind, itemID string, level int)
}

type breachState struct {
	response   bool
	resolution bool
}

// Monitor periodically scans open items for SLA breaches and escalation
// thresholds, emitting the configured actions. Actions fire only when a
// breach is newly detected relative to the previous scan.
type Monitor struct {
	items      repository.ItemRepository
	settings   SettingsProvider
	engine     *Engine
	notifier   Notifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	clock      Clock

	mu   sync.Mutex
	seen map[string]breachState
}

// MonitorDependencies bundles collaborators.
type MonitorDependencies struct {
	ItemRepo   repository.ItemRepository
	Settings   SettingsProvider
	Engine     *Engine
	Notifier   Notifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      Clock
}

// NewMonitor creates the escalation monitor.
func NewMonitor(deps MonitorDependencies) *Monitor {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Monitor{
		items:      deps.ItemRepo,
		settings:   deps.Settings,
		engine:     deps.Engine,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		clock:      deps.Clock,
		seen:       make(map[string]breachState),
	}
}

// Scan runs one breach-check pass over every open item.
func (m *Monitor) Scan(ctx context.Context) error {
	cfg, err := m.settings.SLAConfig(ctx)
	if err != nil {
		return apperrors.NewUnavailable("sla config unavailable", err)
	}
	items, err := m.items.ListOpen(ctx)
	if err != nil {
		return apperrors.NewUnavailable("open item listing failed", err)
	}

	now := m.clock.Now()
	current := make(map[string]breachState, len(items))
	for _, item := range items {
		report, err := sla.CheckBreaches(item, cfg, now)
		if err != nil {
			m.logger.Error("breach check failed", zap.String("item_id", item.ID), zap.Error(err))
			continue
		}
		state := breachState{response: report.ResponseBreached, resolution: report.ResolutionBreached}
		current[item.ID] = state

		prev := m.previous(item.ID)
		newlyBreached := (state.response && !prev.response) || (state.resolution && !prev.resolution)
		if !newlyBreached {
			continue
		}

		if m.metrics != nil {
			m.metrics.SLABreaches.Inc()
		}
		m.logger.Warn("sla breach detected",
			zap.String("item_id", item.ID),
			zap.Bool("response", state.response),
			zap.Bool("resolution", state.resolution))
		if cfg.Notifications.BreachNotify {
			m.publish(ctx, events.EventSLABreached, item.ID, events.SLABreachedPayload{
				ResponseBreached:   state.response,
				ResolutionBreached: state.resolution,
				ResponseDeadline:   report.ResponseDeadline,
				ResolutionDeadline: report.ResolutionDeadline,
			})
		}

		esc, err := sla.EscalationLevel(item, cfg, now)
		if err != nil {
			m.logger.Error("escalation lookup failed", zap.String("item_id", item.ID), zap.Error(err))
			continue
		}

		// A breached item still waiting in the queue jumps ahead of fresh
		// same-priority work regardless of escalation rules.
		if !item.Assigned() {
			if err := m.engine.ElevateForBreach(ctx, item); err != nil {
				m.logger.Error("queue elevation failed", zap.String("item_id", item.ID), zap.Error(err))
			}
		}
		if esc == nil {
			continue
		}
		m.applyEscalation(ctx, item, *esc)
	}

	m.mu.Lock()
	m.seen = current
	m.mu.Unlock()
	return nil
}

func (m *Monitor) applyEscalation(ctx context.Context, item domain.RoutableItem, esc sla.Escalation) {
	if m.metrics != nil {
		m.metrics.Escalations.Inc()
	}
	m.publish(ctx, events.EventEscalationTriggered, item.ID, events.EscalationTriggeredPayload{
		Level:   esc.Level,
		Actions: esc.Actions,
	})
	for _, action := range esc.Actions {
		switch action {
		case domain.EscalationActionNotifyManager:
			if m.notifier != nil {
				m.notifier.Notify(ctx, NotifyManager, item.ID, esc.Level)
			}
		case domain.EscalationActionNotifyTeam:
			if m.notifier != nil {
				m.notifier.Notify(ctx, NotifyTeam, item.ID, esc.Level)
			}
		case domain.EscalationActionReassign:
			if !item.Assigned() {
				continue
			}
			if err := m.engine.ReassignItem(ctx, item.ID); err != nil {
				m.logger.Error("escalation reassignment failed",
					zap.String("item_id", item.ID), zap.Error(err))
			}
		}
	}
}

func (m *Monitor) previous(itemID string) breachState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[itemID]
}

func (m *Monitor) publish(ctx context.Context, eventType events.EventType, itemID string, payload any) {
	if m.dispatcher == nil {
		return
	}
	_ = m.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ItemID:    itemID,
		Timestamp: m.clock.Now(),
		Payload:   payload,
	})
}

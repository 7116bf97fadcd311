// Package sla computes response/resolution deadlines, breach state, and
// escalation levels against a business-hours calendar.
package sla

import (
	"fmt"
	"math"
	"time"

	"github.com/spec-kit/routing-service/internal/calendar"
	"github.com/spec-kit/routing-service/internal/domain"
)

// Kind selects which SLA clock a deadline applies to.
type Kind string

const (
	KindResponse   Kind = "response"
	KindResolution Kind = "resolution"
)

// BreachReport is the derived SLA state for one item at a point in time.
// It is recomputed on demand and never stored.
type BreachReport struct {
	ResponseDeadline   time.Time
	ResolutionDeadline time.Time
	ResponseBreached   bool
	ResolutionBreached bool
	ResponseWarning    bool
	ResolutionWarning  bool
}

// Escalation is a matched escalation rule for an item.
type Escalation struct {
	Level   int
	Actions []domain.EscalationAction
}

// ComputeDeadline advances from createdAt by baseMinutes(kind) times the
// priority multiplier, counting only business minutes. Interval skipping is
// used but the result is identical, to the minute, to a per-minute walk.
func ComputeDeadline(createdAt time.Time, priority domain.ItemPriority, kind Kind, cfg domain.SLAConfig) (time.Time, error) {
	sched, err := calendar.New(cfg.BusinessHours)
	if err != nil {
		return time.Time{}, err
	}
	var base int
	switch kind {
	case KindResponse:
		base = cfg.FirstResponseMinutes
	case KindResolution:
		base = cfg.ResolutionMinutes
	default:
		return time.Time{}, fmt.Errorf("unknown deadline kind %q", kind)
	}
	minutes := int(math.Round(float64(base) * cfg.Multiplier(priority)))
	return sched.AddBusinessMinutes(createdAt, minutes), nil
}

// CheckBreaches evaluates breach and warning state for an item at the given
// instant. Warnings are measured in wall-clock time from createdAt, not in
// business minutes.
func CheckBreaches(item domain.RoutableItem, cfg domain.SLAConfig, now time.Time) (BreachReport, error) {
	respDeadline, err := ComputeDeadline(item.CreatedAt, item.Priority, KindResponse, cfg)
	if err != nil {
		return BreachReport{}, err
	}
	resDeadline, err := ComputeDeadline(item.CreatedAt, item.Priority, KindResolution, cfg)
	if err != nil {
		return BreachReport{}, err
	}

	report := BreachReport{
		ResponseDeadline:   respDeadline,
		ResolutionDeadline: resDeadline,
	}
	report.ResponseBreached = item.FirstResponseAt == nil && now.After(respDeadline)
	report.ResolutionBreached = item.ResolvedAt == nil && now.After(resDeadline)

	warnPct := cfg.Notifications.WarningPercent
	if warnPct > 0 {
		report.ResponseWarning = item.FirstResponseAt == nil && pastWarning(item.CreatedAt, respDeadline, warnPct, now)
		report.ResolutionWarning = item.ResolvedAt == nil && pastWarning(item.CreatedAt, resDeadline, warnPct, now)
	}
	return report, nil
}

// EscalationLevel selects the escalation rule whose threshold is the highest
// one at or below the elapsed percentage of the earliest unsatisfied
// deadline. Returns nil when no rule qualifies or the item is resolved.
// Among rules sharing a threshold the highest level wins.
func EscalationLevel(item domain.RoutableItem, cfg domain.SLAConfig, now time.Time) (*Escalation, error) {
	if item.ResolvedAt != nil {
		return nil, nil
	}
	kind := KindResolution
	if item.FirstResponseAt == nil {
		kind = KindResponse
	}
	deadline, err := ComputeDeadline(item.CreatedAt, item.Priority, kind, cfg)
	if err != nil {
		return nil, err
	}
	window := deadline.Sub(item.CreatedAt)
	if window <= 0 {
		return nil, fmt.Errorf("sla window for item %s is empty", item.ID)
	}
	pct := float64(now.Sub(item.CreatedAt)) / float64(window) * 100

	var match *domain.EscalationRule
	for _, rule := range cfg.SortedEscalationRules() {
		if rule.ThresholdPercent <= pct {
			r := rule
			match = &r
		}
	}
	if match == nil {
		return nil, nil
	}
	return &Escalation{Level: match.Level, Actions: match.Actions}, nil
}

func pastWarning(createdAt, deadline time.Time, warnPct float64, now time.Time) bool {
	window := deadline.Sub(createdAt)
	if window <= 0 {
		return false
	}
	threshold := createdAt.Add(time.Duration(float64(window) * warnPct / 100))
	return !now.Before(threshold)
}

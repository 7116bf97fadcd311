package domain

import (
	"fmt"
	"sort"
	"time"
)

// EscalationAction enumerates the actions an escalation rule can trigger.
type EscalationAction string

const (
	EscalationActionNotifyManager EscalationAction = "NOTIFY_MANAGER"
	EscalationActionReassign      EscalationAction = "REASSIGN"
	EscalationActionNotifyTeam    EscalationAction = "NOTIFY_TEAM"
)

// BusinessHours is a weekly recurring window during which SLA clocks advance.
type BusinessHours struct {
	Start    string         `json:"start"` // "HH:mm"
	End      string         `json:"end"`   // "HH:mm"
	Timezone string         `json:"timezone"`
	WorkDays []time.Weekday `json:"work_days"`
}

// EscalationRule maps an elapsed-percentage threshold to a severity level
// and its configured actions.
type EscalationRule struct {
	Level            int                `json:"level"`
	ThresholdPercent float64            `json:"threshold_percent"`
	Actions          []EscalationAction `json:"actions"`
}

// NotificationSettings controls SLA warning and breach notifications.
type NotificationSettings struct {
	WarningPercent float64 `json:"warning_percent"`
	BreachNotify   bool    `json:"breach_notify"`
	UpdatesNotify  bool    `json:"updates_notify"`
}

// SLAConfig is the singleton SLA configuration maintained by administrators.
type SLAConfig struct {
	FirstResponseMinutes int                      `json:"first_response_minutes"`
	ResolutionMinutes    int                      `json:"resolution_minutes"`
	BusinessHours        BusinessHours            `json:"business_hours"`
	PriorityMultipliers  map[ItemPriority]float64 `json:"priority_multipliers"`
	EscalationRules      []EscalationRule         `json:"escalation_rules"`
	Notifications        NotificationSettings     `json:"notifications"`
}

// Multiplier returns the priority multiplier, defaulting to 1.0 when the
// priority has no explicit entry.
func (c SLAConfig) Multiplier(p ItemPriority) float64 {
	if m, ok := c.PriorityMultipliers[p]; ok {
		return m
	}
	return 1.0
}

// ParseClock parses an "HH:mm" value into minutes since midnight.
func ParseClock(v string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(v, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("invalid clock value %q", v)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("clock value %q out of range", v)
	}
	return hh*60 + mm, nil
}

// Validate rejects malformed business hours. Overnight windows
// (start >= end) and empty work-day sets are configuration errors.
func (b BusinessHours) Validate() error {
	start, err := ParseClock(b.Start)
	if err != nil {
		return err
	}
	end, err := ParseClock(b.End)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("business hours start %q must be before end %q (overnight windows are not supported)", b.Start, b.End)
	}
	if len(b.WorkDays) == 0 {
		return fmt.Errorf("business hours require at least one work day")
	}
	if _, err := time.LoadLocation(b.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", b.Timezone, err)
	}
	return nil
}

// Validate checks the full SLA configuration at load/update time so that
// malformed settings are rejected before they reach deadline arithmetic.
func (c SLAConfig) Validate() error {
	if c.FirstResponseMinutes <= 0 {
		return fmt.Errorf("first response minutes must be positive")
	}
	if c.ResolutionMinutes <= 0 {
		return fmt.Errorf("resolution minutes must be positive")
	}
	if err := c.BusinessHours.Validate(); err != nil {
		return err
	}
	for p, m := range c.PriorityMultipliers {
		if !ValidItemPriority(p) {
			return fmt.Errorf("unknown priority %q in multipliers", p)
		}
		if m <= 0 {
			return fmt.Errorf("priority multiplier for %s must be positive", p)
		}
	}
	for _, r := range c.EscalationRules {
		if r.ThresholdPercent <= 0 {
			return fmt.Errorf("escalation rule level %d: threshold must be positive", r.Level)
		}
		for _, a := range r.Actions {
			switch a {
			case EscalationActionNotifyManager, EscalationActionReassign, EscalationActionNotifyTeam:
			default:
				return fmt.Errorf("escalation rule level %d: unknown action %q", r.Level, a)
			}
		}
	}
	if c.Notifications.WarningPercent < 0 || c.Notifications.WarningPercent > 100 {
		return fmt.Errorf("warning percent must be within [0,100]")
	}
	return nil
}

// SortedEscalationRules returns the rules ordered by ascending threshold,
// with equal thresholds ordered by ascending level. Selection logic relies
// on this ordering to pick the highest qualifying threshold, and the highest
// level among threshold ties.
func (c SLAConfig) SortedEscalationRules() []EscalationRule {
	rules := make([]EscalationRule, len(c.EscalationRules))
	copy(rules, c.EscalationRules)
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].ThresholdPercent != rules[j].ThresholdPercent {
			return rules[i].ThresholdPercent < rules[j].ThresholdPercent
		}
		return rules[i].Level < rules[j].Level
	})
	return rules
}

package domain

import "time"

// AgentStatus enumerates agent availability states.
type AgentStatus string

const (
	AgentStatusOnline  AgentStatus = "ONLINE"
	AgentStatusAway    AgentStatus = "AWAY"
	AgentStatusOffline AgentStatus = "OFFLINE"
)

// Agent is the routing view of a support agent. The directory owns the
// record; the routing core reads it and issues load deltas.
type Agent struct {
	ID            string
	Name          string
	Status        AgentStatus
	CurrentLoad   int
	MaxConcurrent int
	ExpertiseTags []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasExpertise reports whether the agent carries the given expertise tag.
func (a *Agent) HasExpertise(tag string) bool {
	for _, t := range a.ExpertiseTags {
		if t == tag {
			return true
		}
	}
	return false
}

// EffectiveMax returns the concurrency ceiling for the agent, honoring a
// global per-agent cap when one is configured (cap <= 0 means no global cap).
func (a *Agent) EffectiveMax(globalCap int) int {
	if globalCap > 0 && globalCap < a.MaxConcurrent {
		return globalCap
	}
	return a.MaxConcurrent
}

// AtCapacity reports whether the agent cannot take further assignments.
func (a *Agent) AtCapacity(globalCap int) bool {
	return a.CurrentLoad >= a.EffectiveMax(globalCap)
}

// ResolutionRecord is one completed work item, used for response-time scoring.
type ResolutionRecord struct {
	AgentID    string
	ItemID     string
	CreatedAt  time.Time
	ResolvedAt time.Time
}

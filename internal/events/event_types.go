package events

import (
	"time"

	"github.com/spec-kit/routing-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventItemEnqueued        EventType = "item_enqueued"
	EventItemAssigned        EventType = "item_assigned"
	EventItemReassigned      EventType = "item_reassigned"
	EventSLABreached         EventType = "sla_breached"
	EventEscalationTriggered EventType = "escalation_triggered"
)

// Event represents a domain event emitted by the routing core.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ItemID    string      `json:"item_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ItemEnqueuedPayload payload.
type ItemEnqueuedPayload struct {
	Priority      int                 `json:"priority"`
	ItemPriority  domain.ItemPriority `json:"item_priority"`
	BreachBoosted bool                `json:"breach_boosted,omitempty"`
}

// ItemAssignedPayload payload.
type ItemAssignedPayload struct {
	AgentID string  `json:"agent_id"`
	Score   float64 `json:"score"`
}

// ItemReassignedPayload payload.
type ItemReassignedPayload struct {
	PreviousAgentID *string `json:"previous_agent_id,omitempty"`
	Reason          string  `json:"reason"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	ResponseBreached   bool      `json:"response_breached"`
	ResolutionBreached bool      `json:"resolution_breached"`
	ResponseDeadline   time.Time `json:"response_deadline"`
	ResolutionDeadline time.Time `json:"resolution_deadline"`
}

// EscalationTriggeredPayload payload.
type EscalationTriggeredPayload struct {
	Level   int                       `json:"level"`
	Actions []domain.EscalationAction `json:"actions"`
}

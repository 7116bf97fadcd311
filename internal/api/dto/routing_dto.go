package dto

import (
	"time"

	"github.com/spec-kit/routing-service/internal/domain"
	"github.com/spec-kit/routing-service/internal/sla"
)

// SubmitItemRequest creates a new routable item.
type SubmitItemRequest struct {
	Kind       string `json:"kind"`
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	CustomerID string `json:"customer_id"`
}

// ItemResponse is the API projection of a routable item.
type ItemResponse struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Category        string     `json:"category"`
	Priority        string     `json:"priority"`
	CustomerID      string     `json:"customer_id"`
	AssigneeID      *string    `json:"assignee_id,omitempty"`
	Status          string     `json:"status"`
	Queued          bool       `json:"queued"`
	CreatedAt       time.Time  `json:"created_at"`
	EnqueuedAt      time.Time  `json:"enqueued_at"`
	FirstResponseAt *time.Time `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// NewItemResponse maps a domain item.
func NewItemResponse(item domain.RoutableItem, queued bool) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		Kind:            string(item.Kind),
		Category:        item.Category,
		Priority:        string(item.Priority),
		CustomerID:      item.CustomerID,
		AssigneeID:      item.AssigneeID,
		Status:          string(item.Status),
		Queued:          queued,
		CreatedAt:       item.CreatedAt,
		EnqueuedAt:      item.EnqueuedAt,
		FirstResponseAt: item.FirstResponseAt,
		ResolvedAt:      item.ResolvedAt,
	}
}

// TimestampRequest carries an optional explicit event time; the server
// clock is used when absent.
type TimestampRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// SLAStatusResponse is the derived SLA state for one item.
type SLAStatusResponse struct {
	ResponseDeadline   time.Time `json:"response_deadline"`
	ResolutionDeadline time.Time `json:"resolution_deadline"`
	ResponseBreached   bool      `json:"response_breached"`
	ResolutionBreached bool      `json:"resolution_breached"`
	ResponseWarning    bool      `json:"response_warning"`
	ResolutionWarning  bool      `json:"resolution_warning"`
	EscalationLevel    *int      `json:"escalation_level,omitempty"`
}

// NewSLAStatusResponse maps a breach report and optional escalation.
func NewSLAStatusResponse(report sla.BreachReport, esc *sla.Escalation) SLAStatusResponse {
	resp := SLAStatusResponse{
		ResponseDeadline:   report.ResponseDeadline,
		ResolutionDeadline: report.ResolutionDeadline,
		ResponseBreached:   report.ResponseBreached,
		ResolutionBreached: report.ResolutionBreached,
		ResponseWarning:    report.ResponseWarning,
		ResolutionWarning:  report.ResolutionWarning,
	}
	if esc != nil {
		level := esc.Level
		resp.EscalationLevel = &level
	}
	return resp
}

// QueueStatusResponse is a point-in-time queue snapshot.
type QueueStatusResponse struct {
	Depth int            `json:"depth"`
	Next  *QueueEntryDTO `json:"next,omitempty"`
}

// QueueEntryDTO mirrors a queue entry.
type QueueEntryDTO struct {
	ItemID     string    `json:"item_id"`
	Priority   int       `json:"priority"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

package domain

import "time"

// ItemKind distinguishes tickets from live chat sessions.
type ItemKind string

const (
	ItemKindTicket ItemKind = "TICKET"
	ItemKindChat   ItemKind = "CHAT"
)

// ItemStatus enumerates lifecycle states for routable items.
type ItemStatus string

const (
	ItemStatusOpen      ItemStatus = "OPEN"
	ItemStatusResolved  ItemStatus = "RESOLVED"
	ItemStatusCancelled ItemStatus = "CANCELLED"
)

// ItemPriority enumerates SLA urgency.
type ItemPriority string

const (
	ItemPriorityLow    ItemPriority = "LOW"
	ItemPriorityMedium ItemPriority = "MEDIUM"
	ItemPriorityHigh   ItemPriority = "HIGH"
	ItemPriorityUrgent ItemPriority = "URGENT"
)

// ValidItemPriority reports whether p is a known priority value.
func ValidItemPriority(p ItemPriority) bool {
	switch p {
	case ItemPriorityLow, ItemPriorityMedium, ItemPriorityHigh, ItemPriorityUrgent:
		return true
	}
	return false
}

// RoutableItem is a ticket or chat session eligible for agent assignment.
type RoutableItem struct {
	ID              string
	Kind            ItemKind
	Category        string
	Priority        ItemPriority
	CustomerID      string
	AssigneeID      *string
	Status          ItemStatus
	CreatedAt       time.Time
	EnqueuedAt      time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	UpdatedAt       time.Time
}

// Open reports whether the item still needs work.
func (i *RoutableItem) Open() bool {
	return i.Status == ItemStatusOpen
}

// Assigned reports whether the item currently has an assignee.
func (i *RoutableItem) Assigned() bool {
	return i.AssigneeID != nil && *i.AssigneeID != ""
}

package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/routing-service/internal/api/dto"
	"github.com/spec-kit/routing-service/internal/domain"
	"github.com/spec-kit/routing-service/internal/repository"
	"github.com/spec-kit/routing-service/internal/routing"
	"github.com/spec-kit/routing-service/internal/sla"
	apperrors "github.com/spec-kit/routing-service/pkg/util"
)

// ItemsHandler exposes routable item operations.
type ItemsHandler struct {
	items    repository.ItemRepository
	engine   *routing.Engine
	queue    routing.AssignmentQueue
	settings routing.SettingsProvider
	clock    routing.Clock
}

// NewItemsHandler creates the handler.
func NewItemsHandler(items repository.ItemRepository, engine *routing.Engine, queue routing.AssignmentQueue, settings routing.SettingsProvider, clock routing.Clock) *ItemsHandler {
	if clock == nil {
		clock = routing.SystemClock()
	}
	return &ItemsHandler{items: items, engine: engine, queue: queue, settings: settings, clock: clock}
}

// Submit creates an item and requests assignment for it.
func (h *ItemsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	kind := domain.ItemKind(strings.ToUpper(req.Kind))
	if kind != domain.ItemKindTicket && kind != domain.ItemKindChat {
		return apperrors.NewValidationError("kind must be TICKET or CHAT", nil)
	}
	priority := domain.ItemPriority(strings.ToUpper(req.Priority))
	if !domain.ValidItemPriority(priority) {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": req.Priority})
	}
	if strings.TrimSpace(req.Category) == "" {
		return apperrors.NewValidationError("category is required", nil)
	}

	item := domain.RoutableItem{
		Kind:       kind,
		Category:   req.Category,
		Priority:   priority,
		CustomerID: req.CustomerID,
		Status:     domain.ItemStatusOpen,
		EnqueuedAt: h.clock.Now(),
	}
	if err := h.items.Create(c.UserContext(), &item); err != nil {
		return apperrors.MapError(err)
	}

	queued, err := h.engine.RequestAssignment(c.UserContext(), item)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewItemResponse(item, queued))
}

// Get returns one item.
func (h *ItemsHandler) Get(c *fiber.Ctx) error {
	item, err := h.items.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	queued := false
	if h.queue != nil {
		if ok, err := h.queue.Contains(c.UserContext(), item.ID); err == nil {
			queued = ok
		}
	}
	return c.JSON(dto.NewItemResponse(*item, queued))
}

// FirstResponse records the first agent response on an item.
func (h *ItemsHandler) FirstResponse(c *fiber.Ctx) error {
	at, err := h.eventTime(c)
	if err != nil {
		return err
	}
	if err := h.items.RecordFirstResponse(c.UserContext(), c.Params("id"), at); err != nil {
		return apperrors.MapError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Resolve marks an item resolved, releasing its agent slot.
func (h *ItemsHandler) Resolve(c *fiber.Ctx) error {
	at, err := h.eventTime(c)
	if err != nil {
		return err
	}
	if err := h.engine.Resolve(c.UserContext(), c.Params("id"), at); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Cancel withdraws an item.
func (h *ItemsHandler) Cancel(c *fiber.Ctx) error {
	if err := h.engine.Cancel(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SLAStatus returns the derived SLA state for an item.
func (h *ItemsHandler) SLAStatus(c *fiber.Ctx) error {
	item, err := h.items.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	cfg, err := h.settings.SLAConfig(c.UserContext())
	if err != nil {
		return apperrors.NewUnavailable("sla config unavailable", err)
	}
	now := h.clock.Now()
	report, err := sla.CheckBreaches(*item, cfg, now)
	if err != nil {
		return apperrors.NewConfigInvalid(err)
	}
	esc, err := sla.EscalationLevel(*item, cfg, now)
	if err != nil {
		return apperrors.NewConfigInvalid(err)
	}
	return c.JSON(dto.NewSLAStatusResponse(report, esc))
}

// QueueStatus returns the queue depth and head entry.
func (h *ItemsHandler) QueueStatus(c *fiber.Ctx) error {
	depth, err := h.queue.Len(c.UserContext())
	if err != nil {
		return apperrors.NewUnavailable("queue unavailable", err)
	}
	resp := dto.QueueStatusResponse{Depth: depth}
	if entry, err := h.queue.PeekNext(c.UserContext()); err == nil && entry != nil {
		resp.Next = &dto.QueueEntryDTO{
			ItemID:     entry.ItemID,
			Priority:   entry.Priority,
			EnqueuedAt: entry.EnqueuedAt,
		}
	}
	return c.JSON(resp)
}

func (h *ItemsHandler) eventTime(c *fiber.Ctx) (time.Time, error) {
	var req dto.TimestampRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return time.Time{}, apperrors.NewValidationError("invalid request body", nil)
		}
	}
	if req.At != nil {
		return *req.At, nil
	}
	return h.clock.Now(), nil
}

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/routing-service/internal/api/dto"
	"github.com/spec-kit/routing-service/internal/domain"
	"github.com/spec-kit/routing-service/internal/repository"
	"github.com/spec-kit/routing-service/internal/routing"
	apperrors "github.com/spec-kit/routing-service/pkg/util"
)

// AgentsHandler exposes the agent directory surface consumed by the
// routing core.
type AgentsHandler struct {
	agents repository.AgentRepository
	engine *routing.Engine
}

// NewAgentsHandler creates the handler.
func NewAgentsHandler(agents repository.AgentRepository, engine *routing.Engine) *AgentsHandler {
	return &AgentsHandler{agents: agents, engine: engine}
}

// Create registers an agent.
func (h *AgentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	if req.MaxConcurrent <= 0 {
		return apperrors.NewValidationError("max_concurrent must be positive", nil)
	}

	agent := domain.Agent{
		Name:          req.Name,
		Status:        domain.AgentStatusOffline,
		MaxConcurrent: req.MaxConcurrent,
		ExpertiseTags: req.ExpertiseTags,
	}
	if err := h.agents.Create(c.UserContext(), &agent); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAgentResponse(agent))
}

// List returns agents, optionally filtered by status.
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	filter := repository.AgentFilter{
		Limit:  c.QueryInt("limit", 100),
		Offset: c.QueryInt("offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := domain.AgentStatus(strings.ToUpper(status))
		filter.Status = &s
	}
	agents, err := h.agents.List(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	out := make([]dto.AgentResponse, 0, len(agents))
	for _, agent := range agents {
		out = append(out, dto.NewAgentResponse(agent))
	}
	return c.JSON(out)
}

// SetStatus changes an agent's availability. Going offline triggers the
// disconnect path: the agent's open items are requeued at elevated priority.
func (h *AgentsHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.AgentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	status := domain.AgentStatus(strings.ToUpper(req.Status))
	switch status {
	case domain.AgentStatusOnline, domain.AgentStatusAway, domain.AgentStatusOffline:
	default:
		return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}

	agentID := c.Params("id")
	if err := h.agents.SetStatus(c.UserContext(), agentID, status); err != nil {
		return apperrors.MapError(err)
	}
	if status == domain.AgentStatusOffline {
		if err := h.engine.OnAgentDisconnect(c.UserContext(), agentID); err != nil {
			return err
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

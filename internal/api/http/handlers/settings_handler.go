package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/routing-service/internal/domain"
	"github.com/spec-kit/routing-service/internal/repository"
	apperrors "github.com/spec-kit/routing-service/pkg/util"
)

// SettingsHandler exposes the singleton routing/SLA configuration. Updates
// are validated and rejected outright when malformed.
type SettingsHandler struct {
	settings repository.SettingsRepository
}

// NewSettingsHandler creates the handler.
func NewSettingsHandler(settings repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetRouting returns the effective routing configuration.
func (h *SettingsHandler) GetRouting(c *fiber.Ctx) error {
	cfg, err := h.settings.RoutingConfig(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(cfg)
}

// UpdateRouting stores a new routing configuration.
func (h *SettingsHandler) UpdateRouting(c *fiber.Ctx) error {
	var cfg domain.RoutingConfig
	if err := c.BodyParser(&cfg); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if err := h.settings.UpdateRoutingConfig(c.UserContext(), cfg); err != nil {
		return err
	}
	return c.JSON(cfg)
}

// GetSLA returns the effective SLA configuration.
func (h *SettingsHandler) GetSLA(c *fiber.Ctx) error {
	cfg, err := h.settings.SLAConfig(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(cfg)
}

// UpdateSLA stores a new SLA configuration.
func (h *SettingsHandler) UpdateSLA(c *fiber.Ctx) error {
	var cfg domain.SLAConfig
	if err := c.BodyParser(&cfg); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if err := h.settings.UpdateSLAConfig(c.UserContext(), cfg); err != nil {
		return err
	}
	return c.JSON(cfg)
}

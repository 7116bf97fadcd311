package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/routing-service/internal/api/http/handlers"
	"github.com/spec-kit/routing-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Items    *handlers.ItemsHandler
	Agents   *handlers.AgentsHandler
	Settings *handlers.SettingsHandler
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	items := api.Group("/items")
	items.Post("", cfg.Items.Submit)
	items.Get("/queue", cfg.Items.QueueStatus)
	items.Get("/:id", cfg.Items.Get)
	items.Get("/:id/sla", cfg.Items.SLAStatus)
	items.Post("/:id/first-response", cfg.Items.FirstResponse)
	items.Post("/:id/resolve", cfg.Items.Resolve)
	items.Post("/:id/cancel", cfg.Items.Cancel)

	agents := api.Group("/agents")
	agents.Post("", cfg.Agents.Create)
	agents.Get("", cfg.Agents.List)
	agents.Put("/:id/status", cfg.Agents.SetStatus)

	settings := api.Group("/settings")
	settings.Get("/routing", cfg.Settings.GetRouting)
	settings.Put("/routing", cfg.Settings.UpdateRouting)
	settings.Get("/sla", cfg.Settings.GetSLA)
	settings.Put("/sla", cfg.Settings.UpdateSLA)
}

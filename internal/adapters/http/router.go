package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/samirrijal/geolisten/internal/pkg/metrics"
)

// NewApp builds the status server.
func NewApp(deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          10 * time.Second,
		AppName:               "geolisten",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
	app.Use(recover.New())
	SetupRoutes(app, deps)
	return app
}

// SetupRoutes registers the health, status and metrics routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Use(requestid.New())
	app.Use(AccessLogMiddleware("/health", "/ready", "/metrics"))

	app.Get("/metrics", metrics.Handler())
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))
	app.Get("/status", StatusHandler(deps))
}

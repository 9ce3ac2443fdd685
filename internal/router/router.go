package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/kegiatan-api/internal/config"
	"github.com/noah-isme/kegiatan-api/internal/handler"
	"github.com/noah-isme/kegiatan-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler    *handler.ActivityHandler
	ActivityLogHandler *handler.ActivityLogHandler
	AuthHandler        *handler.AuthHandler
	UserHandler        *handler.UserHandler
	SeedHandler        *handler.SeedHandler
	JWTMiddleware      fiber.Handler
	LoginLimiter       fiber.Handler
	HealthPing         handler.PingFunc
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthPing))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), deps.LoginLimiter)
	}

	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoles(api)
		deps.UserHandler.Register(api.Group("/users", jwtMiddleware))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activities", jwtMiddleware))
	}

	if deps.ActivityLogHandler != nil {
		deps.ActivityLogHandler.Register(api.Group("/activity-logs", jwtMiddleware))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
}

package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/kegiatan-api/internal/config"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// PingFunc checks a backing dependency.
type PingFunc func(ctx context.Context) error

// HealthCheck returns a handler that reports application health. A failing ping yields 503.
func HealthCheck(cfg config.Config, ping PingFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Database:    "unchecked",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if ping != nil {
			ctx, cancel := context.WithTimeout(requestContext(c), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				payload.Status = "degraded"
				payload.Database = "unavailable"
				return utils.SendSuccessWithStatus(c, fiber.StatusServiceUnavailable, "service degraded", payload)
			}
			payload.Database = "ok"
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

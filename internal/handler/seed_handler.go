package handler

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kegiatan-api/internal/service"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

// SeedHandler exposes an on-demand trigger for the bootstrap seeder.
type SeedHandler struct {
	service service.SeedService
	token   string
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler. An empty token disables the endpoint.
func NewSeedHandler(service service.SeedService, token string, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		token:   token,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/", h.seed)
}

type seedResponse struct {
	Roles      int      `json:"roles"`
	Users      int      `json:"users"`
	Activities int      `json:"activities"`
	Errors     []string `json:"errors"`
}

func (h *SeedHandler) seed(c *fiber.Ctx) error {
	if h.token == "" {
		return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
	}
	provided := c.Get("X-Seed-Token")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.token)) != 1 {
		return utils.SendError(c, fiber.StatusForbidden, "invalid token")
	}

	report := h.service.SeedIfEmpty(requestContext(c))

	resp := seedResponse{
		Roles:      report.Roles,
		Users:      report.Users,
		Activities: report.Activities,
		Errors:     make([]string, 0, len(report.Errors)),
	}
	for _, err := range report.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}

	if len(resp.Errors) > 0 {
		requestLogger(h.logger, c).Warn().Strs("errors", resp.Errors).Msg("seed completed with failures")
		return utils.SendSuccess(c, "seed completed with failures", resp)
	}

	return utils.SendSuccess(c, "seed completed", resp)
}

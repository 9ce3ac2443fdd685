package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/service"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

// ActivityHandler exposes activity CRUD endpoints.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires the activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(requestContext(c), c.Query("search"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activities")
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.SendSuccess(c, "activities retrieved", result)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	activity, err := h.service.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load activity")
	}
	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.service.Create(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create activity")
	}

	requestLogger(h.logger, c).Info().Uint("user_id", userIDFromContext(c)).Str("activity_id", activity.ID).Msg("activity created via api")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	var payload dto.ActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.ID != "" && strings.TrimSpace(payload.ID) != id {
		return utils.Fail(c, fiber.StatusBadRequest, "activity id cannot be changed", fiber.Map{"field": "id"})
	}

	activity, err := h.service.Update(requestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update activity")
	}

	requestLogger(h.logger, c).Info().Uint("user_id", userIDFromContext(c)).Str("activity_id", activity.ID).Msg("activity updated via api")
	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Delete(requestContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete activity")
	}

	requestLogger(h.logger, c).Info().Uint("user_id", userIDFromContext(c)).Str("activity_id", id).Msg("activity deleted via api")
	return utils.SendSuccess(c, "activity deleted", fiber.Map{"id": id})
}

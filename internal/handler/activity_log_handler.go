package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/service"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

// ActivityLogHandler serves the activity change log and its live websocket feed.
type ActivityLogHandler struct {
	service service.ActivityService
	feed    service.ChangeFeed
	logger  zerolog.Logger
}

// NewActivityLogHandler constructs the handler. feed may be nil, which disables the websocket route.
func NewActivityLogHandler(service service.ActivityService, feed service.ChangeFeed, logger zerolog.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{
		service: service,
		feed:    feed,
		logger:  logger.With().Str("component", "activity_log_handler").Logger(),
	}
}

// Register wires the change log routes.
func (h *ActivityLogHandler) Register(router fiber.Router) {
	if h.feed != nil {
		router.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		router.Get("/ws", websocket.New(h.stream))
	}
	router.Get("/", h.list)
}

func (h *ActivityLogHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	result, err := h.service.ChangeLog(requestContext(c), dto.ChangeLogListRequest{
		ActivityID: c.Query("activity_id"),
		Action:     c.Query("action"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch activity logs")
	}

	return utils.OK(c, result.Items, "activity logs retrieved", result.Pagination)
}

func (h *ActivityLogHandler) stream(conn *websocket.Conn) {
	events, cancel := h.feed.Subscribe()
	defer cancel()

	h.logger.Info().Interface("user_id", conn.Locals("user_id")).Msg("activity log websocket connected")
	defer h.logger.Info().Interface("user_id", conn.Locals("user_id")).Msg("activity log websocket disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case entry, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				h.logger.Warn().Err(err).Msg("failed to push activity log entry")
				return
			}
		}
	}
}

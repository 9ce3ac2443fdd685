package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kegiatan-api/internal/service"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

// UserHandler lists users and roles.
type UserHandler struct {
	users  service.UserService
	logger zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(users service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With().Str("component", "user_handler").Logger(),
	}
}

// RegisterRoles wires the public role listing used by the sign-up form.
func (h *UserHandler) RegisterRoles(router fiber.Router) {
	router.Get("/roles", h.listRoles)
}

// Register wires the authenticated user listing.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/", h.listUsers)
}

func (h *UserHandler) listUsers(c *fiber.Ctx) error {
	users, err := h.users.ListAll(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list users")
	}
	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *UserHandler) listRoles(c *fiber.Ctx) error {
	roles, err := h.users.ListRoles(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list roles")
	}
	return utils.SendSuccess(c, "roles retrieved", roles)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/service"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

// AuthHandler serves login and sign-up.
type AuthHandler struct {
	auth   service.AuthService
	users  service.UserService
	logger zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(auth service.AuthService, users service.UserService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		users:  users,
		logger: logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the auth routes. limiter, when non-nil, guards the login route.
func (h *AuthHandler) Register(router fiber.Router, limiter fiber.Handler) {
	if limiter != nil {
		router.Post("/login", limiter, h.login)
	} else {
		router.Post("/login", h.login)
	}
	router.Post("/register", h.register)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.auth.Login(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to log in")
	}

	return utils.SendSuccess(c, "login successful", result)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.Register(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register user")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "registration successful", user)
}

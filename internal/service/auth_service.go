package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kegiatan-api/internal/dto"
)

// AuthService is the login gate: it checks credentials and issues session tokens.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
}

type authService struct {
	users     UserService
	secret    []byte
	ttl       time.Duration
	validator *validator.Validate
	now       func() time.Time
	logger    zerolog.Logger
}

// NewAuthService constructs the auth service. Tokens are HS256 signed with secret.
func NewAuthService(users UserService, secret string, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &authService{
		users:     users,
		secret:    []byte(secret),
		ttl:       ttl,
		validator: validate,
		now:       time.Now,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if s.validator != nil {
		if err := s.validator.Struct(payload); err != nil {
			return dto.LoginResponse{}, asValidationError(err)
		}
	}

	user, err := s.users.VerifyCredentials(ctx, payload.Username, payload.Password)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.ttl)

	role := ""
	if user.Role != nil {
		role = strings.ToLower(user.Role.Name)
	}

	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"name": user.Name,
		"role": role,
		"iat":  issuedAt.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.LoginResponse{
		User:      dto.NewUserResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

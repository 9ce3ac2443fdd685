package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/models"
	"github.com/noah-isme/kegiatan-api/internal/repository"
	"github.com/noah-isme/kegiatan-api/pkg/password"
)

// UserService covers sign-up, credential checks and user/role listings.
type UserService interface {
	VerifyCredentials(ctx context.Context, username, secret string) (models.User, error)
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error)
	ListAll(ctx context.Context) ([]dto.UserResponse, error)
	ListRoles(ctx context.Context) ([]dto.RoleResponse, error)
}

// registerAttempts bounds retries when a concurrent registration claims the same id.
const registerAttempts = 3

// UserServiceDeps groups the collaborators of the user service. Cache is optional.
type UserServiceDeps struct {
	Transactor repository.Transactor
	Users      repository.UserRepository
	Roles      repository.RoleRepository
	Hasher     password.Hasher
	Validator  *validator.Validate
	Cache      *redis.Client
}

type userService struct {
	tx        repository.Transactor
	users     repository.UserRepository
	roles     repository.RoleRepository
	hasher    password.Hasher
	validator *validator.Validate
	cache     *redis.Client
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewUserService constructs the user service.
func NewUserService(deps UserServiceDeps, logger zerolog.Logger) UserService {
	return &userService{
		tx:        deps.Transactor,
		users:     deps.Users,
		roles:     deps.Roles,
		hasher:    deps.Hasher,
		validator: deps.Validator,
		cache:     deps.Cache,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) VerifyCredentials(ctx context.Context, username, secret string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, classifyStorageError(err)
	}

	if !s.hasher.Verify(user.PasswordHash, secret) {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *userService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.UserResponse, error) {
	name, err := plainText(s.sanitizer, "name", payload.Name)
	if err != nil {
		return dto.UserResponse{}, err
	}
	payload.Name = name
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.ExternalID != nil {
		trimmed := strings.TrimSpace(*payload.ExternalID)
		if trimmed == "" {
			payload.ExternalID = nil
		} else {
			payload.ExternalID = &trimmed
		}
	}

	if s.validator != nil {
		if err := s.validator.Struct(payload); err != nil {
			return dto.UserResponse{}, asValidationError(err)
		}
	}

	hash, err := s.hasher.Hash(payload.Password)
	if err != nil {
		return dto.UserResponse{}, err
	}

	var created models.User
	for attempt := 1; ; attempt++ {
		created, err = s.insertUser(ctx, payload, hash)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		// the translated unique violation does not name its column, so ask the table
		if conflict := s.registrationConflict(ctx, payload); conflict != nil {
			err = conflict
			break
		}
		if attempt == registerAttempts {
			err = fmt.Errorf("assign user id after %d attempts: %w", attempt, err)
			break
		}
		s.logger.Warn().Int("attempt", attempt).Str("username", payload.Username).Msg("user id collided, retrying registration")
	}
	if err != nil {
		err = classifyStorageError(err)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) && !errors.Is(err, ErrUsernameTaken) && !errors.Is(err, ErrExternalIDTaken) {
			s.logger.Error().Err(err).Str("username", payload.Username).Msg("failed to register user")
		}
		return dto.UserResponse{}, err
	}

	bumpActivityListVersion(ctx, s.cache, s.logger)
	s.logger.Info().Uint("user_id", created.ID).Str("username", created.Username).Msg("user registered")

	return dto.NewUserResponse(created), nil
}

// insertUser creates the user with the next free id inside one transaction.
func (s *userService) insertUser(ctx context.Context, payload dto.RegisterRequest, hash string) (models.User, error) {
	var created models.User
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)

		role, err := s.roles.WithTx(tx).GetByID(ctx, payload.RoleID)
		if err != nil {
			if isNotFound(err) {
				return newValidationError("role_id", "role does not exist")
			}
			return err
		}

		taken, err := users.UsernameExists(ctx, payload.Username)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}

		if payload.ExternalID != nil {
			taken, err := users.ExternalIDExists(ctx, *payload.ExternalID)
			if err != nil {
				return err
			}
			if taken {
				return ErrExternalIDTaken
			}
		}

		maxID, err := users.MaxID(ctx)
		if err != nil {
			return err
		}

		roleID := role.ID
		created = models.User{
			ID:           maxID + 1,
			Name:         payload.Name,
			RoleID:       &roleID,
			ExternalID:   payload.ExternalID,
			Username:     payload.Username,
			PasswordHash: hash,
		}
		if err := users.Create(ctx, &created); err != nil {
			return err
		}
		created.Role = &role
		return nil
	})
	return created, err
}

// registrationConflict names the unique column a concurrent registration claimed first.
// It returns nil when neither username nor external id is taken, which leaves the id itself.
func (s *userService) registrationConflict(ctx context.Context, payload dto.RegisterRequest) error {
	taken, err := s.users.UsernameExists(ctx, payload.Username)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}

	if payload.ExternalID != nil {
		taken, err := s.users.ExternalIDExists(ctx, *payload.ExternalID)
		if err != nil {
			return err
		}
		if taken {
			return ErrExternalIDTaken
		}
	}
	return nil
}

func (s *userService) ListAll(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	return dto.NewUserResponses(users), nil
}

func (s *userService) ListRoles(ctx context.Context) ([]dto.RoleResponse, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	return dto.NewRoleResponses(roles), nil
}

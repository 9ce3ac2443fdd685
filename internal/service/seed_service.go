package service

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/models"
	"github.com/noah-isme/kegiatan-api/internal/repository"
	"github.com/noah-isme/kegiatan-api/pkg/password"
)

// SeedReport summarises what SeedIfEmpty inserted and which steps failed.
type SeedReport struct {
	Roles      int
	Users      int
	Activities int
	Errors     []error
}

// Err joins every step failure, or returns nil when all steps succeeded.
func (r SeedReport) Err() error {
	return errors.Join(r.Errors...)
}

// SeedService bootstraps reference and demo data into empty tables.
type SeedService interface {
	SeedIfEmpty(ctx context.Context) SeedReport
}

type seedUser struct {
	user   models.User
	secret string
}

// SeedServiceDeps groups the collaborators of the seeder. Cache is optional.
type SeedServiceDeps struct {
	Transactor      repository.Transactor
	Roles           repository.RoleRepository
	Users           repository.UserRepository
	Activities      repository.ActivityRepository
	ActivityService ActivityService
	Hasher          password.Hasher
	Cache           *redis.Client
}

type seedService struct {
	tx         repository.Transactor
	roles      repository.RoleRepository
	users      repository.UserRepository
	activities repository.ActivityRepository
	activity   ActivityService
	hasher     password.Hasher
	cache      *redis.Client
	logger     zerolog.Logger
}

// NewSeedService constructs the seeder. Activities are created through the activity service so they are change-logged.
func NewSeedService(deps SeedServiceDeps, logger zerolog.Logger) SeedService {
	return &seedService{
		tx:         deps.Transactor,
		roles:      deps.Roles,
		users:      deps.Users,
		activities: deps.Activities,
		activity:   deps.ActivityService,
		hasher:     deps.Hasher,
		cache:      deps.Cache,
		logger:     logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedIfEmpty fills each empty table independently. Failures are reported, never fatal.
func (s *seedService) SeedIfEmpty(ctx context.Context) SeedReport {
	var report SeedReport

	if inserted, err := s.seedRoles(ctx); err != nil {
		report.Errors = append(report.Errors, err)
		s.logger.Warn().Err(err).Msg("failed to seed roles")
	} else {
		report.Roles = inserted
	}

	if inserted, err := s.seedUsers(ctx); err != nil {
		report.Errors = append(report.Errors, err)
		s.logger.Warn().Err(err).Msg("failed to seed users")
	} else {
		report.Users = inserted
	}

	inserted, err := s.seedActivities(ctx)
	report.Activities = inserted
	if err != nil {
		report.Errors = append(report.Errors, err)
		s.logger.Warn().Err(err).Msg("failed to seed activities")
	}

	s.logger.Info().
		Int("roles", report.Roles).
		Int("users", report.Users).
		Int("activities", report.Activities).
		Int("failures", len(report.Errors)).
		Msg("seed completed")

	return report
}

func (s *seedService) seedRoles(ctx context.Context) (int, error) {
	total, err := s.roles.Count(ctx)
	if err != nil || total > 0 {
		return 0, classifyStorageError(err)
	}

	roles := defaultRoles()
	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		repo := s.roles.WithTx(tx)
		for i := range roles {
			if err := repo.Create(ctx, &roles[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, classifyStorageError(err)
	}
	bumpActivityListVersion(ctx, s.cache, s.logger)
	return len(roles), nil
}

func (s *seedService) seedUsers(ctx context.Context) (int, error) {
	total, err := s.users.Count(ctx)
	if err != nil || total > 0 {
		return 0, classifyStorageError(err)
	}

	seeds := defaultUsers()
	for i := range seeds {
		hash, err := s.hasher.Hash(seeds[i].secret)
		if err != nil {
			return 0, err
		}
		seeds[i].user.PasswordHash = hash
	}

	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		for i := range seeds {
			if err := repo.Create(ctx, &seeds[i].user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, classifyStorageError(err)
	}
	bumpActivityListVersion(ctx, s.cache, s.logger)
	return len(seeds), nil
}

func (s *seedService) seedActivities(ctx context.Context) (int, error) {
	total, err := s.activities.Count(ctx)
	if err != nil || total > 0 {
		return 0, classifyStorageError(err)
	}

	var (
		inserted int
		failures []error
	)
	for _, payload := range defaultActivities() {
		if _, err := s.activity.Create(ctx, payload); err != nil {
			failures = append(failures, err)
			continue
		}
		inserted++
	}
	return inserted, errors.Join(failures...)
}

func defaultRoles() []models.Role {
	return []models.Role{
		{ID: 1, Name: "Mahasiswa"},
		{ID: 2, Name: "Dosen"},
		{ID: 3, Name: "Staff"},
	}
}

func defaultUsers() []seedUser {
	build := func(id uint, name string, roleID uint, externalID, username, secret string) seedUser {
		return seedUser{
			user: models.User{
				ID:         id,
				Name:       name,
				RoleID:     &roleID,
				ExternalID: &externalID,
				Username:   username,
			},
			secret: secret,
		}
	}

	return []seedUser{
		build(101, "Paul Fajar", 1, "2025", "Paul_mhs", "PAULPASS"),
		build(102, "Dr. Zhafier", 2, "705", "Zhafier_dsn", "ZHAFPASS"),
		build(103, "Vijaypal Singh", 3, "2252", "Jay_staff", "JAYPASS"),
	}
}

func defaultActivities() []dto.ActivityRequest {
	responsible := func(id uint) *uint { return &id }

	return []dto.ActivityRequest{
		{ID: "K001", Title: "Seminar AI", Date: "10-05-2025", Location: "Aula FT", Category: "Seminar", ResponsibleUserID: responsible(101)},
		{ID: "K002", Title: "Praktikum IoT", Date: "15-05-2025", Location: "Lab Jaringan Komputer", Category: "Praktikum", ResponsibleUserID: responsible(102)},
		{ID: "K003", Title: "Rapat Dosen Bulanan", Date: "20-05-2025", Location: "Ruang Dosen", Category: "Rapat Dosen", ResponsibleUserID: responsible(103)},
	}
}

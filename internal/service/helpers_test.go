package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/kegiatan-api/internal/database"
	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/models"
	"github.com/noah-isme/kegiatan-api/internal/repository"
	"github.com/noah-isme/kegiatan-api/internal/utils"
	"github.com/noah-isme/kegiatan-api/pkg/password"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type testEnv struct {
	db           *gorm.DB
	tx           repository.Transactor
	activityRepo repository.ActivityRepository
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	logRepo      repository.ActivityChangeLogRepository
	hasher       password.Hasher
	activities   ActivityService
	users        UserService
}

type envOptions struct {
	cache   *redis.Client
	feed    ChangeFeed
	changes ChangeLogger
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "kegiatan.db")
	db, err := database.Connect(context.Background(), database.Config{
		Driver:   database.DriverSQLite,
		DSN:      dsn,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		db:           db,
		tx:           repository.NewTransactor(db),
		activityRepo: repository.NewActivityRepository(db),
		userRepo:     repository.NewUserRepository(db),
		roleRepo:     repository.NewRoleRepository(db),
		logRepo:      repository.NewActivityChangeLogRepository(db),
		hasher:       password.NewBcryptHasher(bcrypt.MinCost),
	}

	validate := utils.NewValidator()
	env.activities = NewActivityService(ActivityServiceDeps{
		Transactor: env.tx,
		Activities: env.activityRepo,
		Users:      env.userRepo,
		ChangeLogs: env.logRepo,
		Changes:    opts.changes,
		Validator:  validate,
		Cache:      opts.cache,
		Feed:       opts.feed,
	}, testLogger())
	env.users = NewUserService(UserServiceDeps{
		Transactor: env.tx,
		Users:      env.userRepo,
		Roles:      env.roleRepo,
		Hasher:     env.hasher,
		Validator:  validate,
		Cache:      opts.cache,
	}, testLogger())

	return env
}

func (e *testEnv) seedRoles(t *testing.T) {
	t.Helper()
	for _, role := range defaultRoles() {
		role := role
		require.NoError(t, e.roleRepo.Create(context.Background(), &role))
	}
}

func (e *testEnv) seedUser(t *testing.T, id uint, name, username string) models.User {
	t.Helper()
	roleID := uint(1)
	user := models.User{ID: id, Name: name, RoleID: &roleID, Username: username, PasswordHash: "hash"}
	require.NoError(t, e.userRepo.Create(context.Background(), &user))
	return user
}

func (e *testEnv) changeLog(t *testing.T, activityID string) []models.ActivityChangeLog {
	t.Helper()
	entries, _, err := e.logRepo.List(context.Background(), repository.ActivityChangeLogFilter{ActivityID: activityID})
	require.NoError(t, err)
	return entries
}

func activityRequest(id, title, date string) dto.ActivityRequest {
	return dto.ActivityRequest{
		ID:       id,
		Title:    title,
		Date:     date,
		Location: "Aula FT",
		Category: "Seminar",
	}
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrString(v string) *string {
	return &v
}

var errLogWrite = errors.New("change log unavailable")

// failingChangeLogger rejects every write so tests can observe transaction rollback.
type failingChangeLogger struct{}

func (f failingChangeLogger) WithTx(*gorm.DB) ChangeLogger { return f }

func (failingChangeLogger) LogInsert(context.Context, models.Activity) (*models.ActivityChangeLog, error) {
	return nil, errLogWrite
}

func (failingChangeLogger) LogUpdate(context.Context, models.Activity, models.Activity) (*models.ActivityChangeLog, error) {
	return nil, errLogWrite
}

func (failingChangeLogger) LogDelete(context.Context, models.Activity) (*models.ActivityChangeLog, error) {
	return nil, errLogWrite
}

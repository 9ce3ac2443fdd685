package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/kegiatan-api/internal/database"
	"github.com/noah-isme/kegiatan-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedRoleAndUser(t *testing.T, db *gorm.DB, userID uint, name, username string) models.User {
	t.Helper()

	role := models.Role{ID: 1, Name: "Mahasiswa"}
	require.NoError(t, db.Where("id = ?", role.ID).FirstOrCreate(&role).Error)

	roleID := role.ID
	user := models.User{ID: userID, Name: name, RoleID: &roleID, Username: username, PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), &user))
	return user
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(models.ActivityDateLayout, value, time.UTC)
	require.NoError(t, err)
	return parsed
}

package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/kegiatan-api/internal/models"
)

const activityDetailsSelect = `SELECT a.id, a.title, a.date, a.location, a.category, a.responsible_user_id,
	u.name AS responsible_name, r.name AS responsible_role
FROM activities a
LEFT JOIN users u ON u.id = a.responsible_user_id
LEFT JOIN roles r ON r.id = u.role_id`

// EnsureSchema creates the tables, constraints and the activity_details view when they are missing.
// It is safe to call on every start.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}

	conn := db.WithContext(ctx)
	if err := conn.AutoMigrate(&models.Role{}, &models.User{}, &models.Activity{}, &models.ActivityChangeLog{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	statement := viewStatement(conn.Dialector.Name())
	if err := conn.Exec(statement).Error; err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("failed to create %s view: %w", models.ActivityDetailsView, err)
	}

	return nil
}

func viewStatement(dialect string) string {
	switch dialect {
	case DriverPostgres, DriverMySQL:
		return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", models.ActivityDetailsView, activityDetailsSelect)
	default:
		return fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS %s", models.ActivityDetailsView, activityDetailsSelect)
	}
}

func isAlreadyExists(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

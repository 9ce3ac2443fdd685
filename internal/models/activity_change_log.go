package models

import (
	"time"

	"gorm.io/datatypes"
)

// Change log actions.
const (
	ChangeActionInsert = "INSERT"
	ChangeActionUpdate = "UPDATE"
	ChangeActionDelete = "DELETE"
)

// ActivityChangeLog is an append-only audit entry describing one mutation of an activity.
// ActivityID carries no foreign key; entries outlive the activity they describe.
type ActivityChangeLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActivityID string            `gorm:"size:10;not null;index" json:"activity_id"`
	Action     string            `gorm:"size:16;not null;index" json:"action"`
	OldDetail  *string           `gorm:"type:text" json:"old_detail"`
	NewDetail  *string           `gorm:"type:text" json:"new_detail"`
	Changes    datatypes.JSONMap `gorm:"type:json" json:"changes"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

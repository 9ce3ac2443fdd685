package models

import "time"

// ActivityDateLayout is the DD-MM-YYYY layout used wherever an activity date is rendered as text.
const ActivityDateLayout = "02-01-2006"

// Activity is a scheduled event (kegiatan) managed by the application.
type Activity struct {
	ID                string    `gorm:"primaryKey;size:10" json:"id"`
	Title             string    `gorm:"size:100;not null" json:"title"`
	Date              time.Time `gorm:"column:date;type:date;not null;index" json:"date"`
	Location          string    `gorm:"size:100" json:"location"`
	Category          string    `gorm:"size:50" json:"category"`
	ResponsibleUserID *uint     `gorm:"index" json:"responsible_user_id"`
	ResponsibleUser   *User     `gorm:"foreignKey:ResponsibleUserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// ActivityDetail is a row of the activity_details view: an activity joined with its responsible user and role.
type ActivityDetail struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Date              time.Time `gorm:"column:date" json:"date"`
	Location          string    `json:"location"`
	Category          string    `json:"category"`
	ResponsibleUserID *uint     `json:"responsible_user_id"`
	ResponsibleName   *string   `json:"responsible_name"`
	ResponsibleRole   *string   `json:"responsible_role"`
}

// TableName binds ActivityDetail to the read-only view.
func (ActivityDetail) TableName() string {
	return ActivityDetailsView
}

// ActivityDetailsView names the SQL view joining activities, users and roles.
const ActivityDetailsView = "activity_details"

package models

import "time"

// Role is reference data describing the kind of user (student, lecturer, staff).
type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// User is an account that can log in and be responsible for activities.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	RoleID       *uint     `gorm:"index" json:"role_id"`
	Role         *Role     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"role,omitempty"`
	ExternalID   *string   `gorm:"size:50;uniqueIndex" json:"external_id"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

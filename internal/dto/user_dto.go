package dto

import (
	"time"

	"github.com/noah-isme/kegiatan-api/internal/models"
)

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Username        string  `json:"username" validate:"required,max=50"`
	Password        string  `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string  `json:"confirm_password" validate:"omitempty,eqfield=Password"`
	RoleID          uint    `json:"role_id" validate:"required,gt=0"`
	ExternalID      *string `json:"external_id" validate:"omitempty,max=50"`
}

// RoleResponse is a role as rendered to clients.
type RoleResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// UserResponse is a user without credential material.
type UserResponse struct {
	ID         uint          `json:"id"`
	Name       string        `json:"name"`
	Username   string        `json:"username"`
	ExternalID *string       `json:"external_id"`
	Role       *RoleResponse `json:"role"`
}

// NewRoleResponse converts a role model.
func NewRoleResponse(role models.Role) RoleResponse {
	return RoleResponse{ID: role.ID, Name: role.Name}
}

// NewRoleResponses converts a slice of roles.
func NewRoleResponses(roles []models.Role) []RoleResponse {
	items := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		items = append(items, NewRoleResponse(role))
	}
	return items
}

// NewUserResponse converts a user model.
func NewUserResponse(user models.User) UserResponse {
	response := UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Username:   user.Username,
		ExternalID: user.ExternalID,
	}
	if user.Role != nil {
		role := NewRoleResponse(*user.Role)
		response.Role = &role
	}
	return response
}

// NewUserResponses converts a slice of users.
func NewUserResponses(users []models.User) []UserResponse {
	items := make([]UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, NewUserResponse(user))
	}
	return items
}

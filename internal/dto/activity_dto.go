package dto

import (
	"time"

	"github.com/noah-isme/kegiatan-api/internal/models"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

// ActivityRequest is the payload for creating or fully replacing an activity.
type ActivityRequest struct {
	ID                string `json:"id" validate:"required,max=10"`
	Title             string `json:"title" validate:"required,max=100"`
	Date              string `json:"date" validate:"required,ddmmyyyy"`
	Location          string `json:"location" validate:"required,max=100"`
	Category          string `json:"category" validate:"required,max=50"`
	ResponsibleUserID *uint  `json:"responsible_user_id" validate:"omitempty,gt=0"`
}

// ActivityResponse is an activity as rendered to clients, joined with its responsible user.
type ActivityResponse struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Date              string  `json:"date"`
	Location          string  `json:"location"`
	Category          string  `json:"category"`
	ResponsibleUserID *uint   `json:"responsible_user_id"`
	ResponsibleName   *string `json:"responsible_name"`
	ResponsibleRole   *string `json:"responsible_role"`
}

// ActivityListResponse wraps activity listings.
type ActivityListResponse struct {
	Items    []ActivityResponse `json:"items"`
	Search   string             `json:"search,omitempty"`
	CacheHit bool               `json:"-"`
}

// NewActivityResponse converts a view row into its response form.
func NewActivityResponse(detail models.ActivityDetail) ActivityResponse {
	return ActivityResponse{
		ID:                detail.ID,
		Title:             detail.Title,
		Date:              utils.FormatActivityDate(detail.Date),
		Location:          detail.Location,
		Category:          detail.Category,
		ResponsibleUserID: detail.ResponsibleUserID,
		ResponsibleName:   detail.ResponsibleName,
		ResponsibleRole:   detail.ResponsibleRole,
	}
}

// NewActivityResponses converts a slice of view rows.
func NewActivityResponses(details []models.ActivityDetail) []ActivityResponse {
	items := make([]ActivityResponse, 0, len(details))
	for _, detail := range details {
		items = append(items, NewActivityResponse(detail))
	}
	return items
}

// ChangeLogListRequest filters the change log. PageSize 0 returns every entry.
type ChangeLogListRequest struct {
	ActivityID string `json:"activity_id" validate:"omitempty,max=10"`
	Action     string `json:"action" validate:"omitempty,oneof=INSERT UPDATE DELETE"`
	Page       int    `json:"page" validate:"omitempty,min=1"`
	PageSize   int    `json:"page_size" validate:"omitempty,min=1,max=500"`
}

// ChangeLogResponse is a single audit entry.
type ChangeLogResponse struct {
	ID         uint                   `json:"id"`
	ActivityID string                 `json:"activity_id"`
	Action     string                 `json:"action"`
	OldDetail  *string                `json:"old_detail"`
	NewDetail  *string                `json:"new_detail"`
	Changes    map[string]interface{} `json:"changes,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ChangeLogListResponse wraps change log listings.
type ChangeLogListResponse struct {
	Items      []ChangeLogResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
}

// NewChangeLogResponse converts a stored audit entry.
func NewChangeLogResponse(entry models.ActivityChangeLog) ChangeLogResponse {
	response := ChangeLogResponse{
		ID:         entry.ID,
		ActivityID: entry.ActivityID,
		Action:     entry.Action,
		OldDetail:  entry.OldDetail,
		NewDetail:  entry.NewDetail,
		CreatedAt:  entry.CreatedAt.UTC(),
	}
	if len(entry.Changes) > 0 {
		response.Changes = map[string]interface{}(entry.Changes)
	}
	return response
}

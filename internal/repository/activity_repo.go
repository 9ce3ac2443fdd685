package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/kegiatan-api/internal/models"
)

// ActivityFilter narrows activity detail listings.
type ActivityFilter struct {
	Search string
}

// ActivityRepository persists activities and reads the activity_details view.
type ActivityRepository interface {
	WithTx(tx *gorm.DB) ActivityRepository
	Create(ctx context.Context, activity *models.Activity) error
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (models.Activity, error)
	GetByIDForUpdate(ctx context.Context, id string) (models.Activity, error)
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) (int64, error)
	GetDetail(ctx context.Context, id string) (models.ActivityDetail, error)
	ListDetails(ctx context.Context, filter ActivityFilter) ([]models.ActivityDetail, error)
	Count(ctx context.Context) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs an activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) WithTx(tx *gorm.DB) ActivityRepository {
	if tx == nil {
		return r
	}
	return &activityRepository{db: tx}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

func (r *activityRepository) Exists(ctx context.Context, id string) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", id).Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, "id = ?", id).Error; err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

// GetByIDForUpdate loads the row with a write lock on dialects that support row locking.
func (r *activityRepository) GetByIDForUpdate(ctx context.Context, id string) (models.Activity, error) {
	var activity models.Activity
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&activity, "id = ?", id).Error
	if err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

// Update replaces every mutable column. The id is never written.
func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ?", activity.ID).
		Updates(map[string]interface{}{
			"title":               activity.Title,
			"date":                activity.Date,
			"location":            activity.Location,
			"category":            activity.Category,
			"responsible_user_id": activity.ResponsibleUserID,
		}).Error
}

func (r *activityRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Activity{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *activityRepository) GetDetail(ctx context.Context, id string) (models.ActivityDetail, error) {
	var detail models.ActivityDetail
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&detail).Error; err != nil {
		return models.ActivityDetail{}, err
	}
	return detail, nil
}

// ListDetails returns newest activities first, ties ordered by title. Rows without a date sort last.
// Search matching happens in Go so that "%" and "_" stay literal and case folding
// covers non-ASCII text identically on every dialect.
func (r *activityRepository) ListDetails(ctx context.Context, filter ActivityFilter) ([]models.ActivityDetail, error) {
	var details []models.ActivityDetail
	err := r.db.WithContext(ctx).
		Model(&models.ActivityDetail{}).
		Order("CASE WHEN date IS NULL THEN 1 ELSE 0 END").
		Order("date DESC").
		Order("title ASC").
		Find(&details).Error
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search == "" {
		return details, nil
	}

	matched := make([]models.ActivityDetail, 0, len(details))
	for _, detail := range details {
		if detailMatches(detail, search) {
			matched = append(matched, detail)
		}
	}
	return matched, nil
}

// detailMatches reports whether any searchable column contains the lowercased term.
func detailMatches(detail models.ActivityDetail, term string) bool {
	fields := []string{detail.Title, detail.ID, detail.Location, detail.Category}
	if detail.ResponsibleName != nil {
		fields = append(fields, *detail.ResponsibleName)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (r *activityRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Activity{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/kegiatan-api/internal/models"
)

// ActivityChangeLogFilter narrows change log queries. A zero PageSize returns every match.
type ActivityChangeLogFilter struct {
	Page       int
	PageSize   int
	ActivityID string
	Action     string
}

// ActivityChangeLogRepository appends and reads the activity audit trail.
type ActivityChangeLogRepository interface {
	WithTx(tx *gorm.DB) ActivityChangeLogRepository
	Create(ctx context.Context, entry *models.ActivityChangeLog) error
	List(ctx context.Context, filter ActivityChangeLogFilter) ([]models.ActivityChangeLog, int64, error)
}

type activityChangeLogRepository struct {
	db *gorm.DB
}

// NewActivityChangeLogRepository constructs the change log repository.
func NewActivityChangeLogRepository(db *gorm.DB) ActivityChangeLogRepository {
	return &activityChangeLogRepository{db: db}
}

func (r *activityChangeLogRepository) WithTx(tx *gorm.DB) ActivityChangeLogRepository {
	if tx == nil {
		return r
	}
	return &activityChangeLogRepository{db: tx}
}

func (r *activityChangeLogRepository) Create(ctx context.Context, entry *models.ActivityChangeLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityChangeLogRepository) List(ctx context.Context, filter ActivityChangeLogFilter) ([]models.ActivityChangeLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityChangeLog{})

	if filter.ActivityID != "" {
		query = query.Where("activity_id = ?", filter.ActivityID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var entries []models.ActivityChangeLog
	if err := query.Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

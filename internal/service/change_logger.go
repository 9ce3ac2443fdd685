package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/kegiatan-api/internal/models"
	"github.com/noah-isme/kegiatan-api/internal/repository"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

// ChangeLogger writes one audit entry per activity mutation.
// Bind it to the mutation's transaction with WithTx so both commit or roll back together.
type ChangeLogger interface {
	WithTx(tx *gorm.DB) ChangeLogger
	LogInsert(ctx context.Context, activity models.Activity) (*models.ActivityChangeLog, error)
	// LogUpdate returns a nil entry when the before and after snapshots are identical.
	LogUpdate(ctx context.Context, before, after models.Activity) (*models.ActivityChangeLog, error)
	// LogDelete must run before the row is removed.
	LogDelete(ctx context.Context, activity models.Activity) (*models.ActivityChangeLog, error)
}

type changeLogger struct {
	repo repository.ActivityChangeLogRepository
	now  func() time.Time
}

// NewChangeLogger constructs a change logger over the change log repository.
func NewChangeLogger(repo repository.ActivityChangeLogRepository) ChangeLogger {
	return &changeLogger{
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (l *changeLogger) WithTx(tx *gorm.DB) ChangeLogger {
	return &changeLogger{repo: l.repo.WithTx(tx), now: l.now}
}

func (l *changeLogger) LogInsert(ctx context.Context, activity models.Activity) (*models.ActivityChangeLog, error) {
	snapshot := FormatActivitySnapshot(activity)
	return l.write(ctx, models.ActivityChangeLog{
		ActivityID: activity.ID,
		Action:     models.ChangeActionInsert,
		NewDetail:  &snapshot,
	})
}

func (l *changeLogger) LogUpdate(ctx context.Context, before, after models.Activity) (*models.ActivityChangeLog, error) {
	oldSnapshot := FormatActivitySnapshot(before)
	newSnapshot := FormatActivitySnapshot(after)
	if oldSnapshot == newSnapshot {
		return nil, nil
	}

	return l.write(ctx, models.ActivityChangeLog{
		ActivityID: after.ID,
		Action:     models.ChangeActionUpdate,
		OldDetail:  &oldSnapshot,
		NewDetail:  &newSnapshot,
		Changes:    diffActivities(before, after),
	})
}

func (l *changeLogger) LogDelete(ctx context.Context, activity models.Activity) (*models.ActivityChangeLog, error) {
	snapshot := FormatActivitySnapshot(activity)
	return l.write(ctx, models.ActivityChangeLog{
		ActivityID: activity.ID,
		Action:     models.ChangeActionDelete,
		OldDetail:  &snapshot,
	})
}

func (l *changeLogger) write(ctx context.Context, entry models.ActivityChangeLog) (*models.ActivityChangeLog, error) {
	entry.CreatedAt = l.now()
	if err := l.repo.Create(ctx, &entry); err != nil {
		return nil, fmt.Errorf("write %s change log for activity %s: %w", strings.ToLower(entry.Action), entry.ActivityID, err)
	}
	return &entry, nil
}

// FormatActivitySnapshot renders the labelled, fixed-order presentation string stored in change log entries.
func FormatActivitySnapshot(activity models.Activity) string {
	return fmt.Sprintf("ID: %s, Title: %s, Date: %s, Location: %s, Category: %s, ResponsibleID: %s",
		activity.ID,
		activity.Title,
		utils.FormatActivityDate(activity.Date),
		activity.Location,
		activity.Category,
		formatResponsible(activity.ResponsibleUserID),
	)
}

func formatResponsible(id *uint) string {
	if id == nil {
		return "NULL"
	}
	return strconv.FormatUint(uint64(*id), 10)
}

func diffActivities(before, after models.Activity) datatypes.JSONMap {
	changes := datatypes.JSONMap{}
	record := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes[field] = map[string]interface{}{"old": oldValue, "new": newValue}
		}
	}

	record("title", before.Title, after.Title)
	record("date", utils.FormatActivityDate(before.Date), utils.FormatActivityDate(after.Date))
	record("location", before.Location, after.Location)
	record("category", before.Category, after.Category)
	record("responsible_user_id", formatResponsible(before.ResponsibleUserID), formatResponsible(after.ResponsibleUserID))

	if len(changes) == 0 {
		return nil
	}
	return changes
}

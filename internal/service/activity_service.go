package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/models"
	"github.com/noah-isme/kegiatan-api/internal/observability"
	"github.com/noah-isme/kegiatan-api/internal/repository"
	"github.com/noah-isme/kegiatan-api/internal/utils"
)

const (
	activityListCachePrefix = "kegiatan:activities:list"
	activityListVersionKey  = "kegiatan:activities:list:version"
)

// ActivityService manages activities and exposes their change log.
type ActivityService interface {
	Create(ctx context.Context, payload dto.ActivityRequest) (dto.ActivityResponse, error)
	Update(ctx context.Context, id string, payload dto.ActivityRequest) (dto.ActivityResponse, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (dto.ActivityResponse, error)
	List(ctx context.Context, search string) (dto.ActivityListResponse, error)
	ChangeLog(ctx context.Context, req dto.ChangeLogListRequest) (dto.ChangeLogListResponse, error)
}

// ActivityServiceDeps groups the collaborators of the activity service. Cache and Feed are optional.
type ActivityServiceDeps struct {
	Transactor repository.Transactor
	Activities repository.ActivityRepository
	Users      repository.UserRepository
	ChangeLogs repository.ActivityChangeLogRepository
	Changes    ChangeLogger
	Validator  *validator.Validate
	Cache      *redis.Client
	CacheTTL   time.Duration
	Feed       ChangeFeed
}

type activityService struct {
	tx        repository.Transactor
	repo      repository.ActivityRepository
	users     repository.UserRepository
	logs      repository.ActivityChangeLogRepository
	changes   ChangeLogger
	validator *validator.Validate
	cache     *redis.Client
	cacheTTL  time.Duration
	feed      ChangeFeed
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(deps ActivityServiceDeps, logger zerolog.Logger) ActivityService {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	changes := deps.Changes
	if changes == nil {
		changes = NewChangeLogger(deps.ChangeLogs)
	}

	return &activityService{
		tx:        deps.Transactor,
		repo:      deps.Activities,
		users:     deps.Users,
		logs:      deps.ChangeLogs,
		changes:   changes,
		validator: deps.Validator,
		cache:     deps.Cache,
		cacheTTL:  ttl,
		feed:      deps.Feed,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/kegiatan-api/internal/service/activity"),
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Create(ctx context.Context, payload dto.ActivityRequest) (dto.ActivityResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "activities.create", trace.WithAttributes(attribute.String("activity.id", payload.ID)))
	defer span.End()

	activity, err := s.buildActivity(payload)
	if err != nil {
		return dto.ActivityResponse{}, s.fail(span, "create", err)
	}

	var entry *models.ActivityChangeLog
	err = s.tx.WithinTransaction(spanCtx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		exists, err := repo.Exists(spanCtx, activity.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateActivityID
		}
		if err := s.ensureResponsibleUser(spanCtx, tx, activity.ResponsibleUserID); err != nil {
			return err
		}
		if err := repo.Create(spanCtx, &activity); err != nil {
			return translateActivityWriteError(err)
		}

		entry, err = s.changes.WithTx(tx).LogInsert(spanCtx, activity)
		return err
	})
	if err != nil {
		return dto.ActivityResponse{}, s.fail(span, "create", err)
	}

	s.afterCommit(spanCtx, "create", entry)
	s.logger.Info().Str("activity_id", activity.ID).Msg("activity created")

	return s.responseFor(spanCtx, activity)
}

func (s *activityService) Update(ctx context.Context, id string, payload dto.ActivityRequest) (dto.ActivityResponse, error) {
	id = strings.TrimSpace(id)
	spanCtx, span := s.tracer.Start(ctx, "activities.update", trace.WithAttributes(attribute.String("activity.id", id)))
	defer span.End()

	payload.ID = id
	activity, err := s.buildActivity(payload)
	if err != nil {
		return dto.ActivityResponse{}, s.fail(span, "update", err)
	}

	var entry *models.ActivityChangeLog
	err = s.tx.WithinTransaction(spanCtx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		before, err := repo.GetByIDForUpdate(spanCtx, activity.ID)
		if err != nil {
			if isNotFound(err) {
				return ErrActivityNotFound
			}
			return err
		}
		if err := s.ensureResponsibleUser(spanCtx, tx, activity.ResponsibleUserID); err != nil {
			return err
		}
		if err := repo.Update(spanCtx, &activity); err != nil {
			return translateActivityWriteError(err)
		}

		entry, err = s.changes.WithTx(tx).LogUpdate(spanCtx, before, activity)
		return err
	})
	if err != nil {
		return dto.ActivityResponse{}, s.fail(span, "update", err)
	}

	s.afterCommit(spanCtx, "update", entry)
	if entry == nil {
		s.logger.Debug().Str("activity_id", activity.ID).Msg("activity update changed nothing")
	} else {
		s.logger.Info().Str("activity_id", activity.ID).Msg("activity updated")
	}

	return s.responseFor(spanCtx, activity)
}

func (s *activityService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	spanCtx, span := s.tracer.Start(ctx, "activities.delete", trace.WithAttributes(attribute.String("activity.id", id)))
	defer span.End()

	if id == "" {
		return s.fail(span, "delete", newValidationError("id", "is required"))
	}

	var entry *models.ActivityChangeLog
	err := s.tx.WithinTransaction(spanCtx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		before, err := repo.GetByIDForUpdate(spanCtx, id)
		if err != nil {
			if isNotFound(err) {
				return ErrActivityNotFound
			}
			return err
		}

		entry, err = s.changes.WithTx(tx).LogDelete(spanCtx, before)
		if err != nil {
			return err
		}

		affected, err := repo.Delete(spanCtx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrActivityNotFound
		}
		return nil
	})
	if err != nil {
		return s.fail(span, "delete", err)
	}

	s.afterCommit(spanCtx, "delete", entry)
	s.logger.Info().Str("activity_id", id).Msg("activity deleted")

	return nil
}

func (s *activityService) Get(ctx context.Context, id string) (dto.ActivityResponse, error) {
	detail, err := s.repo.GetDetail(ctx, strings.TrimSpace(id))
	if err != nil {
		if isNotFound(err) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, classifyStorageError(err)
	}
	return dto.NewActivityResponse(detail), nil
}

func (s *activityService) List(ctx context.Context, search string) (dto.ActivityListResponse, error) {
	search = strings.TrimSpace(search)
	spanCtx, span := s.tracer.Start(ctx, "activities.list", trace.WithAttributes(attribute.String("activity.search", search)))
	defer span.End()

	cacheKey := s.listCacheKey(spanCtx, search)
	if cacheKey != "" {
		if cached, err := s.cache.Get(spanCtx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.ActivityListResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				observability.ActivityListCache().WithLabelValues("hit").Inc()
				return response, nil
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read activity list cache")
		}
	}

	details, err := s.repo.ListDetails(spanCtx, repository.ActivityFilter{Search: search})
	if err != nil {
		err = classifyStorageError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.ActivityListResponse{}, err
	}

	response := dto.ActivityListResponse{
		Items:  dto.NewActivityResponses(details),
		Search: search,
	}

	if cacheKey != "" {
		observability.ActivityListCache().WithLabelValues("miss").Inc()
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(spanCtx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to write activity list cache")
			}
		}
	}

	return response, nil
}

func (s *activityService) ChangeLog(ctx context.Context, req dto.ChangeLogListRequest) (dto.ChangeLogListResponse, error) {
	req.ActivityID = strings.TrimSpace(req.ActivityID)
	req.Action = strings.ToUpper(strings.TrimSpace(req.Action))
	if s.validator != nil {
		if err := s.validator.Struct(req); err != nil {
			return dto.ChangeLogListResponse{}, asValidationError(err)
		}
	}

	entries, total, err := s.logs.List(ctx, repository.ActivityChangeLogFilter{
		ActivityID: req.ActivityID,
		Action:     req.Action,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return dto.ChangeLogListResponse{}, classifyStorageError(err)
	}

	items := make([]dto.ChangeLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewChangeLogResponse(entry))
	}

	return dto.ChangeLogListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *activityService) buildActivity(payload dto.ActivityRequest) (models.Activity, error) {
	payload.ID = strings.TrimSpace(payload.ID)
	var err error
	if payload.Title, err = plainText(s.sanitizer, "title", payload.Title); err != nil {
		return models.Activity{}, err
	}
	if payload.Location, err = plainText(s.sanitizer, "location", payload.Location); err != nil {
		return models.Activity{}, err
	}
	if payload.Category, err = plainText(s.sanitizer, "category", payload.Category); err != nil {
		return models.Activity{}, err
	}
	payload.Date = strings.TrimSpace(payload.Date)

	if s.validator != nil {
		if err := s.validator.Struct(payload); err != nil {
			return models.Activity{}, asValidationError(err)
		}
	}

	date, err := utils.ParseActivityDate(payload.Date)
	if err != nil {
		return models.Activity{}, &ValidationError{Field: "date", Message: "must be a valid date in DD-MM-YYYY format", Err: err}
	}

	return models.Activity{
		ID:                payload.ID,
		Title:             payload.Title,
		Date:              date,
		Location:          payload.Location,
		Category:          payload.Category,
		ResponsibleUserID: payload.ResponsibleUserID,
	}, nil
}

func (s *activityService) ensureResponsibleUser(ctx context.Context, tx *gorm.DB, userID *uint) error {
	if userID == nil {
		return nil
	}
	if _, err := s.users.WithTx(tx).GetByID(ctx, *userID); err != nil {
		if isNotFound(err) {
			return newValidationError("responsible_user_id", "responsible user does not exist")
		}
		return err
	}
	return nil
}

func (s *activityService) responseFor(ctx context.Context, activity models.Activity) (dto.ActivityResponse, error) {
	detail, err := s.repo.GetDetail(ctx, activity.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("activity_id", activity.ID).Msg("failed to reload activity detail")
		return dto.NewActivityResponse(models.ActivityDetail{
			ID:                activity.ID,
			Title:             activity.Title,
			Date:              activity.Date,
			Location:          activity.Location,
			Category:          activity.Category,
			ResponsibleUserID: activity.ResponsibleUserID,
		}), nil
	}
	return dto.NewActivityResponse(detail), nil
}

// afterCommit runs side effects that must not influence the outcome of a committed mutation.
func (s *activityService) afterCommit(ctx context.Context, operation string, entry *models.ActivityChangeLog) {
	observability.ActivityMutations().WithLabelValues(operation, "success").Inc()
	bumpActivityListVersion(ctx, s.cache, s.logger)

	if entry == nil {
		return
	}
	observability.ChangeLogEntries().WithLabelValues(entry.Action).Inc()
	if s.feed != nil {
		s.feed.Publish(ctx, dto.NewChangeLogResponse(*entry))
	}
}

func (s *activityService) fail(span trace.Span, operation string, err error) error {
	err = classifyStorageError(err)

	outcome := "error"
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		outcome = "invalid"
	case errors.Is(err, ErrDuplicateActivityID):
		outcome = "conflict"
	case errors.Is(err, ErrActivityNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrStorageUnavailable):
		outcome = "unavailable"
	}
	observability.ActivityMutations().WithLabelValues(operation, outcome).Inc()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if outcome == "error" || outcome == "unavailable" {
		s.logger.Error().Err(err).Str("operation", operation).Msg("activity mutation failed")
	}
	return err
}

func (s *activityService) listCacheKey(ctx context.Context, search string) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, activityListVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("failed to read activity list cache version")
		return ""
	}
	return fmt.Sprintf("%s:v%d:%s", activityListCachePrefix, version, strings.ToLower(search))
}

func translateActivityWriteError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateActivityID
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return newValidationError("responsible_user_id", "responsible user does not exist")
	default:
		return err
	}
}

// bumpActivityListVersion invalidates every cached activity listing. Activity, user and role writes all call it.
func bumpActivityListVersion(ctx context.Context, cache *redis.Client, logger zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Incr(ctx, activityListVersionKey).Err(); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate activity list cache")
	}
}

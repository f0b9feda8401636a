package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// ActivityLogFilter narrows audit log queries.
type ActivityLogFilter struct {
	Page       int
	PageSize   int
	ActorID    *uint
	Action     string
	EntityType string
	EntityID   *uint
	Since      *time.Time
}

// ActionCount is the number of audit entries recorded for one action.
type ActionCount struct {
	Action string
	Total  int64
}

// ActivityLogRepository persists the audit trail of portion toggles,
// verifications and administrative changes.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
	Timeline(ctx context.Context, entityType string, entityID uint) ([]models.ActivityLog, error)
	CountByAction(ctx context.Context, since time.Time) ([]ActionCount, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entries []models.ActivityLog
	if err := query.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Timeline returns every entry recorded against one entity, oldest first.
func (r *activityLogRepository) Timeline(ctx context.Context, entityType string, entityID uint) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *activityLogRepository) CountByAction(ctx context.Context, since time.Time) ([]ActionCount, error) {
	var counts []ActionCount
	err := r.db.WithContext(ctx).
		Model(&models.ActivityLog{}).
		Select("action, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("action").
		Order("total DESC, action ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *activityLogRepository) filtered(ctx context.Context, filter ActivityLogFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	return query
}

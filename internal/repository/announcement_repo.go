package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// AnnouncementFilter filters announcement list queries.
type AnnouncementFilter struct {
	DepartmentID *uint
	SubjectIDs   []uint
	VisibleAt    time.Time
	Page         int
	PageSize     int
}

// AnnouncementRepository exposes persistence helpers for announcements.
type AnnouncementRepository interface {
	ListVisible(ctx context.Context, filter AnnouncementFilter) ([]models.Announcement, int64, error)
	GetByID(ctx context.Context, id uint) (models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id uint) error
}

type announcementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository constructs the repository implementation.
func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

// ListVisible returns active, unexpired announcements. Institution-wide
// notices are always included; scoped ones only when they match the filter.
func (r *announcementRepository) ListVisible(ctx context.Context, filter AnnouncementFilter) ([]models.Announcement, int64, error) {
	at := filter.VisibleAt
	if at.IsZero() {
		at = time.Now()
	}

	query := r.db.WithContext(ctx).Model(&models.Announcement{}).
		Where("is_active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", at)

	scope := r.db.Where("department_id IS NULL AND subject_id IS NULL")
	if filter.DepartmentID != nil {
		scope = scope.Or("department_id = ?", *filter.DepartmentID)
	}
	if len(filter.SubjectIDs) > 0 {
		scope = scope.Or("subject_id IN ?", filter.SubjectIDs)
	}
	query = query.Where(scope)

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

	var items []models.Announcement
	if err := query.Preload("Author").Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *announcementRepository) GetByID(ctx context.Context, id uint) (models.Announcement, error) {
	var announcement models.Announcement
	if err := r.db.WithContext(ctx).Preload("Author").First(&announcement, id).Error; err != nil {
		return models.Announcement{}, err
	}
	return announcement, nil
}

func (r *announcementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	return r.db.WithContext(ctx).Omit("Author").Create(announcement).Error
}

func (r *announcementRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Announcement{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

// ErrAnnouncementEmpty indicates content that sanitizes to nothing.
var ErrAnnouncementEmpty = errors.New("announcement content empty after sanitization")

// AnnouncementService publishes and lists announcements.
type AnnouncementService interface {
	List(ctx context.Context, req dto.AnnouncementListRequest) (dto.AnnouncementListResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type announcementService struct {
	repo      repository.AnnouncementRepository
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the announcement service.
func NewAnnouncementService(repo repository.AnnouncementRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AnnouncementService {
	return &announcementService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "announcement_service").Logger(),
		now:       time.Now,
	}
}

func (s *announcementService) List(ctx context.Context, req dto.AnnouncementListRequest) (dto.AnnouncementListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnnouncementListResponse{}, err
	}

	page := normalizePage(req.Page)
	size := clampPageSize(req.PageSize)
	items, total, err := s.repo.ListVisible(ctx, repository.AnnouncementFilter{
		DepartmentID: req.DepartmentID,
		VisibleAt:    s.now(),
		Page:         page,
		PageSize:     size,
	})
	if err != nil {
		return dto.AnnouncementListResponse{}, err
	}

	responses := make([]dto.AnnouncementResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewAnnouncementResponse(item))
	}

	return dto.AnnouncementListResponse{
		Items: responses,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   size,
			TotalItems: total,
			TotalPages: totalPages(total, size),
		},
	}, nil
}

func (s *announcementService) Create(ctx context.Context, actor Actor, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.AnnouncementResponse{}, ErrAnnouncementEmpty
	}

	announcement := models.Announcement{
		Title:        strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(payload.Title)),
		Content:      content,
		DepartmentID: payload.DepartmentID,
		SubjectID:    payload.SubjectID,
		CreatedBy:    actor.ID,
		IsActive:     true,
		ExpiresAt:    payload.ExpiresAt,
	}
	if err := s.repo.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "announcement.created",
		EntityType: "announcement",
		EntityID:   &announcement.ID,
	})

	created, err := s.repo.GetByID(ctx, announcement.ID)
	if err != nil {
		return dto.AnnouncementResponse{}, err
	}
	return dto.NewAnnouncementResponse(created), nil
}

func (s *announcementService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnnouncementNotFound
		}
		return err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "announcement.deleted",
		EntityType: "announcement",
		EntityID:   &id,
	})
	return nil
}

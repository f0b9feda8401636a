package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
	History(ctx context.Context, entityType string, entityID uint) ([]dto.ActivityResponse, error)
	Summary(ctx context.Context, days int) (dto.ActivitySummaryResponse, error)
}

const defaultSummaryDays = 7

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
		now:    time.Now,
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("entity type is required")
	}

	model := models.ActivityLog{
		ActorID:    entry.Actor.ID,
		ActorRole:  normalizeRole(entry.Actor.Role),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
		IPAddress:  entry.Actor.IP,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	page := normalizePage(req.Page)
	size := clampPageSize(req.PageSize)
	filter := repository.ActivityLogFilter{
		Page:       page,
		PageSize:   size,
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.EntityID > 0 {
		filter.EntityID = &req.EntityID
	}
	if req.SinceDays > 0 {
		since := s.now().AddDate(0, 0, -req.SinceDays)
		filter.Since = &since
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items: activityResponses(entries),
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   size,
			TotalItems: total,
			TotalPages: totalPages(total, size),
		},
	}, nil
}

// History returns the audit trail of one entity in the order it happened,
// e.g. every completion toggle of a portion.
func (s *activityService) History(ctx context.Context, entityType string, entityID uint) ([]dto.ActivityResponse, error) {
	entityType = strings.ToLower(strings.TrimSpace(entityType))
	if entityType == "" {
		return nil, ErrEntityTypeRequired
	}

	entries, err := s.repo.Timeline(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return activityResponses(entries), nil
}

func (s *activityService) Summary(ctx context.Context, days int) (dto.ActivitySummaryResponse, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}
	since := s.now().AddDate(0, 0, -days)

	counts, err := s.repo.CountByAction(ctx, since)
	if err != nil {
		return dto.ActivitySummaryResponse{}, err
	}

	summary := dto.ActivitySummaryResponse{
		Since:   since,
		Days:    days,
		Actions: make([]dto.ActionCountResponse, 0, len(counts)),
	}
	for _, count := range counts {
		summary.Total += count.Total
		summary.Actions = append(summary.Actions, dto.ActionCountResponse{Action: count.Action, Total: count.Total})
	}
	return summary, nil
}

func activityResponses(entries []models.ActivityLog) []dto.ActivityResponse {
	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}
	return responses
}

// audit records an entry and only logs on failure; the state change it
// describes has already been committed.
func audit(ctx context.Context, recorder ActivityRecorder, entry ActivityEntry) {
	if recorder == nil {
		return
	}
	_, _ = recorder.Record(ctx, entry)
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role models.Role) string {
	r := strings.ToLower(strings.TrimSpace(string(role)))
	if r == "" {
		return "system"
	}
	return r
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

// AcademicYearService manages academic years and the single active one.
type AcademicYearService interface {
	List(ctx context.Context) ([]dto.AcademicYearResponse, error)
	Active(ctx context.Context) (dto.AcademicYearResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.AcademicYearCreateRequest) (dto.AcademicYearResponse, error)
	Activate(ctx context.Context, actor Actor, id uint) (dto.AcademicYearResponse, error)
}

type academicYearService struct {
	years     repository.AcademicYearRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewAcademicYearService constructs the academic year service.
func NewAcademicYearService(years repository.AcademicYearRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AcademicYearService {
	return &academicYearService{
		years:     years,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "academic_year_service").Logger(),
	}
}

func (s *academicYearService) List(ctx context.Context) ([]dto.AcademicYearResponse, error) {
	years, err := s.years.List(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.AcademicYearResponse, 0, len(years))
	for _, year := range years {
		responses = append(responses, dto.NewAcademicYearResponse(year))
	}
	return responses, nil
}

func (s *academicYearService) Active(ctx context.Context) (dto.AcademicYearResponse, error) {
	year, err := s.years.GetActive(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveAcademicYear) {
			return dto.AcademicYearResponse{}, ErrAcademicYearNotFound
		}
		return dto.AcademicYearResponse{}, err
	}
	return dto.NewAcademicYearResponse(year), nil
}

func (s *academicYearService) Create(ctx context.Context, actor Actor, payload dto.AcademicYearCreateRequest) (dto.AcademicYearResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AcademicYearResponse{}, err
	}

	start, err := parseDate(payload.StartDate)
	if err != nil {
		return dto.AcademicYearResponse{}, err
	}
	end, err := parseDate(payload.EndDate)
	if err != nil {
		return dto.AcademicYearResponse{}, err
	}
	if end.Before(start) {
		return dto.AcademicYearResponse{}, ErrInvalidDateRange
	}

	year := models.AcademicYear{
		Name:      strings.TrimSpace(payload.Name),
		StartDate: start,
		EndDate:   end,
	}
	if err := s.years.Create(ctx, &year); err != nil {
		return dto.AcademicYearResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "academic_year.created",
		EntityType: "academic_year",
		EntityID:   &year.ID,
		Metadata:   map[string]interface{}{"name": year.Name},
	})

	if payload.Activate {
		return s.Activate(ctx, actor, year.ID)
	}
	return dto.NewAcademicYearResponse(year), nil
}

// Activate makes id the only active academic year.
func (s *academicYearService) Activate(ctx context.Context, actor Actor, id uint) (dto.AcademicYearResponse, error) {
	if err := s.years.Activate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AcademicYearResponse{}, ErrAcademicYearNotFound
		}
		return dto.AcademicYearResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "academic_year.activated",
		EntityType: "academic_year",
		EntityID:   &id,
	})

	return s.Active(ctx)
}

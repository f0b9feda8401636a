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

// DepartmentService manages departments.
type DepartmentService interface {
	List(ctx context.Context) ([]dto.DepartmentResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.DepartmentRequest) (dto.DepartmentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.DepartmentRequest) (dto.DepartmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type departmentService struct {
	departments repository.DepartmentRepository
	years       repository.AcademicYearRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
}

// NewDepartmentService constructs the department service.
func NewDepartmentService(departments repository.DepartmentRepository, years repository.AcademicYearRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) DepartmentService {
	return &departmentService{
		departments: departments,
		years:       years,
		validator:   validate,
		activity:    activity,
		logger:      logger.With().Str("component", "department_service").Logger(),
	}
}

// List returns departments with their subject count in the active year, or
// across all years when none is active.
func (s *departmentService) List(ctx context.Context) ([]dto.DepartmentResponse, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, err
	}

	var yearID *uint
	if year, err := s.years.GetActive(ctx); err == nil {
		yearID = &year.ID
	} else if !errors.Is(err, repository.ErrNoActiveAcademicYear) {
		s.logger.Warn().Err(err).Msg("failed to load active academic year")
	}

	counts, err := s.departments.CountSubjects(ctx, yearID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count subjects per department")
		counts = map[uint]int64{}
	}

	responses := make([]dto.DepartmentResponse, 0, len(departments))
	for _, department := range departments {
		responses = append(responses, dto.NewDepartmentResponse(department, counts[department.ID]))
	}
	return responses, nil
}

func (s *departmentService) Create(ctx context.Context, actor Actor, payload dto.DepartmentRequest) (dto.DepartmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DepartmentResponse{}, err
	}

	department := models.Department{
		Name:  strings.TrimSpace(payload.Name),
		Code:  strings.ToUpper(strings.TrimSpace(payload.Code)),
		HodID: payload.HodID,
	}
	if err := s.departments.Create(ctx, &department); err != nil {
		return dto.DepartmentResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "department.created",
		EntityType: "department",
		EntityID:   &department.ID,
		Metadata:   map[string]interface{}{"code": department.Code},
	})

	return dto.NewDepartmentResponse(department, 0), nil
}

func (s *departmentService) Update(ctx context.Context, actor Actor, id uint, payload dto.DepartmentRequest) (dto.DepartmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DepartmentResponse{}, err
	}

	department, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DepartmentResponse{}, ErrDepartmentNotFound
		}
		return dto.DepartmentResponse{}, err
	}

	department.Name = strings.TrimSpace(payload.Name)
	department.Code = strings.ToUpper(strings.TrimSpace(payload.Code))
	department.HodID = payload.HodID
	if err := s.departments.Update(ctx, &department); err != nil {
		return dto.DepartmentResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "department.updated",
		EntityType: "department",
		EntityID:   &department.ID,
		Metadata:   map[string]interface{}{"code": department.Code},
	})

	return dto.NewDepartmentResponse(department, 0), nil
}

// Delete removes the department row only. Subjects and users referencing it
// keep their department id.
func (s *departmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.departments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "department.deleted",
		EntityType: "department",
		EntityID:   &id,
	})
	return nil
}

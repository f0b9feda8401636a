package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/progress"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

const (
	defaultAssessmentMax = 20
	defaultProjectMax    = 100
)

// ParseKind resolves a path segment into a submission kind.
func ParseKind(value string) (models.SubmissionKind, error) {
	kind, err := models.ParseSubmissionKind(value)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidKind, value)
	}
	return kind, nil
}

// CourseworkService manages assessments and projects.
type CourseworkService interface {
	List(ctx context.Context, actor Actor, kind models.SubmissionKind, req dto.CourseworkListRequest) ([]models.Coursework, error)
	Create(ctx context.Context, actor Actor, kind models.SubmissionKind, payload dto.CourseworkCreateRequest) (models.Coursework, error)
	Complete(ctx context.Context, actor Actor, kind models.SubmissionKind, id uint) (models.Coursework, error)
}

type courseworkService struct {
	coursework repository.CourseworkRepository
	subjects   repository.SubjectRepository
	users      repository.UserRepository
	years      repository.AcademicYearRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	events     EventPublisher
	sanitizer  *bluemonday.Policy
	location   *time.Location
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCourseworkService constructs the coursework service.
func NewCourseworkService(coursework repository.CourseworkRepository, subjects repository.SubjectRepository, users repository.UserRepository, years repository.AcademicYearRepository, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, location *time.Location, logger zerolog.Logger) CourseworkService {
	if location == nil {
		location = time.Local
	}
	if events == nil {
		events = NoopEventPublisher()
	}

	return &courseworkService{
		coursework: coursework,
		subjects:   subjects,
		users:      users,
		years:      years,
		validator:  validate,
		activity:   activity,
		events:     events,
		sanitizer:  bluemonday.StrictPolicy(),
		location:   location,
		logger:     logger.With().Str("component", "coursework_service").Logger(),
		now:        time.Now,
	}
}

func (s *courseworkService) List(ctx context.Context, actor Actor, kind models.SubmissionKind, req dto.CourseworkListRequest) ([]models.Coursework, error) {
	filter := repository.CourseworkFilter{
		SubjectID:    req.SubjectID,
		DepartmentID: req.DepartmentID,
	}

	switch {
	case actor.Can(models.CapabilityViewInstitutionProgress):
	case actor.Can(models.CapabilityManageOwnPortions):
		filter.FacilitatorID = &actor.ID
	default:
		user, err := s.users.GetByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		if user.DepartmentID == nil {
			return []models.Coursework{}, nil
		}
		filter.DepartmentID = user.DepartmentID
	}

	if year, err := s.years.GetActive(ctx); err == nil {
		filter.AcademicYearID = &year.ID
	} else if !errors.Is(err, repository.ErrNoActiveAcademicYear) {
		return nil, err
	}

	return s.coursework.List(ctx, kind, filter)
}

func (s *courseworkService) Create(ctx context.Context, actor Actor, kind models.SubmissionKind, payload dto.CourseworkCreateRequest) (models.Coursework, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Coursework{}, err
	}

	subject, err := s.subjects.GetByID(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Coursework{}, ErrSubjectNotFound
		}
		return models.Coursework{}, err
	}
	if !canManageSubject(actor, subject) {
		return models.Coursework{}, ErrCourseworkForbidden
	}

	scheduled, err := parseDate(payload.ScheduledDate)
	if err != nil {
		return models.Coursework{}, fmt.Errorf("%w: scheduled_date", ErrInvalidCoursework)
	}

	var id uint
	switch kind {
	case models.SubmissionKindAssessment:
		if payload.Number <= 0 {
			return models.Coursework{}, fmt.Errorf("%w: ia_number is required", ErrInvalidCoursework)
		}
		assessment := models.Assessment{
			SubjectID:     subject.ID,
			Number:        payload.Number,
			ScheduledDate: scheduled,
			MaxMarks:      maxOrDefault(payload.MaxAmount, defaultAssessmentMax),
		}
		if err := s.coursework.CreateAssessment(ctx, &assessment); err != nil {
			return models.Coursework{}, err
		}
		id = assessment.ID
	case models.SubmissionKindProject:
		title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
		if title == "" || payload.Type == "" {
			return models.Coursework{}, fmt.Errorf("%w: title and type are required", ErrInvalidCoursework)
		}
		assigned := progress.Midnight(s.now().In(s.location), time.UTC)
		if payload.AssignedDate != "" {
			if assigned, err = parseDate(payload.AssignedDate); err != nil {
				return models.Coursework{}, fmt.Errorf("%w: assigned_date", ErrInvalidCoursework)
			}
		}
		if scheduled.Before(assigned) {
			return models.Coursework{}, ErrInvalidDateRange
		}
		project := models.Project{
			SubjectID:    subject.ID,
			Type:         models.ProjectType(payload.Type),
			Title:        title,
			Description:  payload.Description,
			AssignedDate: assigned,
			DueDate:      scheduled,
			MaxScore:     maxOrDefault(payload.MaxAmount, defaultProjectMax),
		}
		if err := s.coursework.CreateProject(ctx, &project); err != nil {
			return models.Coursework{}, err
		}
		id = project.ID
	default:
		return models.Coursework{}, ErrInvalidKind
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     string(kind) + ".created",
		EntityType: string(kind),
		EntityID:   &id,
		Metadata:   map[string]interface{}{"subject_id": subject.ID},
	})

	return s.coursework.Get(ctx, kind, id)
}

func (s *courseworkService) Complete(ctx context.Context, actor Actor, kind models.SubmissionKind, id uint) (models.Coursework, error) {
	item, err := s.coursework.Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Coursework{}, ErrCourseworkNotFound
		}
		return models.Coursework{}, err
	}
	if !actor.Can(models.CapabilityManageAllPortions) && item.FacilitatorID != actor.ID {
		return models.Coursework{}, ErrCourseworkForbidden
	}

	day := progress.Midnight(s.now().In(s.location), time.UTC)
	if err := s.coursework.MarkCompleted(ctx, kind, id, day); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Coursework{}, ErrCourseworkNotFound
		}
		return models.Coursework{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     string(kind) + ".completed",
		EntityType: string(kind),
		EntityID:   &id,
	})
	s.events.Publish(ctx, ProgressEvent{
		Type:       EventCourseworkCompleted,
		EntityType: string(kind),
		EntityID:   id,
		ActorID:    actor.ID,
	})

	item.IsCompleted = true
	item.CompletedOn = &day
	return item, nil
}

func canManageSubject(actor Actor, subject models.Subject) bool {
	if actor.Can(models.CapabilityManageAllPortions) {
		return true
	}
	return subject.FacilitatorID == actor.ID
}

func maxOrDefault(value *float64, fallback float64) float64 {
	if value == nil || *value <= 0 {
		return fallback
	}
	return *value
}

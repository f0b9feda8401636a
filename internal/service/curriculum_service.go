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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/observability"
	"github.com/noah-isme/portion-tracker-api/internal/progress"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

// CurriculumService manages subjects and the completion state of portions.
type CurriculumService interface {
	CreateSubject(ctx context.Context, actor Actor, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	CreatePortion(ctx context.Context, actor Actor, subjectID uint, payload dto.PortionCreateRequest) (dto.PortionResponse, error)
	SetPortionCompletion(ctx context.Context, actor Actor, portionID uint, payload dto.PortionCompletionRequest) (dto.PortionResponse, error)
}

type curriculumService struct {
	subjects    repository.SubjectRepository
	portions    repository.PortionRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
	years       repository.AcademicYearRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	events      EventPublisher
	sanitizer   *bluemonday.Policy
	location    *time.Location
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// CurriculumRepositories groups the repositories the curriculum service needs.
type CurriculumRepositories struct {
	Subjects      repository.SubjectRepository
	Portions      repository.PortionRepository
	Departments   repository.DepartmentRepository
	Users         repository.UserRepository
	AcademicYears repository.AcademicYearRepository
}

// NewCurriculumService constructs the curriculum service.
func NewCurriculumService(repos CurriculumRepositories, validate *validator.Validate, activity ActivityRecorder, events EventPublisher, location *time.Location, logger zerolog.Logger) CurriculumService {
	if location == nil {
		location = time.Local
	}
	if events == nil {
		events = NoopEventPublisher()
	}

	return &curriculumService{
		subjects:    repos.Subjects,
		portions:    repos.Portions,
		departments: repos.Departments,
		users:       repos.Users,
		years:       repos.AcademicYears,
		validator:   validate,
		activity:    activity,
		events:      events,
		sanitizer:   bluemonday.StrictPolicy(),
		location:    location,
		logger:      logger.With().Str("component", "curriculum_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/portion-tracker-api/internal/service/curriculum"),
		now:         time.Now,
	}
}

func (s *curriculumService) CreateSubject(ctx context.Context, actor Actor, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	if _, err := s.departments.GetByID(ctx, payload.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrDepartmentNotFound
		}
		return dto.SubjectResponse{}, err
	}

	facilitator, err := s.users.GetByID(ctx, payload.FacilitatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrUserNotFound
		}
		return dto.SubjectResponse{}, err
	}
	if facilitator.Role != models.RoleFacilitator {
		return dto.SubjectResponse{}, fmt.Errorf("%w: user %d is not a facilitator", ErrInvalidRole, facilitator.ID)
	}

	yearID, err := s.resolveYear(ctx, payload.AcademicYearID)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		Name:           strings.TrimSpace(payload.Name),
		Code:           strings.ToUpper(strings.TrimSpace(payload.Code)),
		DepartmentID:   payload.DepartmentID,
		AcademicYearID: yearID,
		FacilitatorID:  payload.FacilitatorID,
	}
	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "subject.created",
		EntityType: "subject",
		EntityID:   &subject.ID,
		Metadata:   map[string]interface{}{"code": subject.Code, "department_id": subject.DepartmentID},
	})

	return dto.NewSubjectResponse(subject), nil
}

func (s *curriculumService) resolveYear(ctx context.Context, requested *uint) (uint, error) {
	if requested != nil {
		return *requested, nil
	}
	year, err := s.years.GetActive(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveAcademicYear) {
			return 0, ErrAcademicYearNotFound
		}
		return 0, err
	}
	return year.ID, nil
}

func (s *curriculumService) CreatePortion(ctx context.Context, actor Actor, subjectID uint, payload dto.PortionCreateRequest) (dto.PortionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PortionResponse{}, err
	}

	subject, err := s.ownedSubject(ctx, actor, subjectID)
	if err != nil {
		return dto.PortionResponse{}, err
	}

	planned, err := parseDate(payload.PlannedDate)
	if err != nil {
		return dto.PortionResponse{}, fmt.Errorf("invalid planned date: %w", err)
	}

	portion := models.Portion{
		SubjectID:     subject.ID,
		Name:          strings.TrimSpace(payload.Name),
		Description:   s.cleanText(payload.Description),
		SequenceOrder: payload.SequenceOrder,
		PlannedDate:   &planned,
	}
	if err := s.portions.Create(ctx, &portion); err != nil {
		return dto.PortionResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "portion.created",
		EntityType: "portion",
		EntityID:   &portion.ID,
		Metadata:   map[string]interface{}{"subject_id": subject.ID},
	})

	return dto.NewPortionResponse(portion, subject.Name, progress.Classify(portion, s.today())), nil
}

// SetPortionCompletion toggles a portion. Completing stamps today's date and
// keeps sanitized notes; reopening clears the date and always drops notes.
func (s *curriculumService) SetPortionCompletion(ctx context.Context, actor Actor, portionID uint, payload dto.PortionCompletionRequest) (dto.PortionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PortionResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "portions.set_completion", trace.WithAttributes(
		attribute.Int64("portion.id", int64(portionID)),
		attribute.Bool("portion.completed", payload.Completed),
	))
	defer span.End()

	portion, err := s.portions.GetByID(ctx, portionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortionResponse{}, ErrPortionNotFound
		}
		span.RecordError(err)
		return dto.PortionResponse{}, err
	}

	subject, err := s.ownedSubject(ctx, actor, portion.SubjectID)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return dto.PortionResponse{}, ErrPortionNotFound
		}
		return dto.PortionResponse{}, err
	}

	today := s.today()
	var (
		completedDate *time.Time
		notes         *string
	)
	if payload.Completed {
		day := progress.Midnight(today, time.UTC)
		completedDate = &day
		notes = s.cleanText(payload.Notes)
	}

	if err := s.portions.SetCompletion(ctx, portion.ID, payload.Completed, completedDate, notes); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set_completion_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortionResponse{}, ErrPortionNotFound
		}
		s.logger.Error().Err(err).Uint("portion_id", portion.ID).Msg("failed to update portion completion")
		return dto.PortionResponse{}, err
	}

	portion.IsCompleted = payload.Completed
	portion.CompletedDate = completedDate
	portion.Notes = notes

	action, direction := EventPortionCompleted, "completed"
	if !payload.Completed {
		action, direction = EventPortionReopened, "reopened"
	}
	observability.PortionToggles().WithLabelValues(direction).Inc()

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "portion",
		EntityID:   &portion.ID,
		Metadata:   map[string]interface{}{"subject_id": subject.ID},
	})
	s.events.Publish(ctx, ProgressEvent{
		Type:       action,
		EntityType: "portion",
		EntityID:   portion.ID,
		ActorID:    actor.ID,
		OccurredAt: s.now().UTC(),
	})

	s.logger.Info().Uint("portion_id", portion.ID).Str("direction", direction).Msg("portion completion updated")

	return dto.NewPortionResponse(portion, subject.Name, progress.Classify(portion, today)), nil
}

// ownedSubject loads the subject and checks the actor may change its
// portions: any subject with manage_all_portions, only their own otherwise.
func (s *curriculumService) ownedSubject(ctx context.Context, actor Actor, subjectID uint) (models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Subject{}, ErrSubjectNotFound
		}
		return models.Subject{}, err
	}

	if actor.Can(models.CapabilityManageAllPortions) {
		return subject, nil
	}
	if actor.Can(models.CapabilityManageOwnPortions) && subject.FacilitatorID == actor.ID {
		return subject, nil
	}
	return models.Subject{}, ErrPortionForbidden
}

func (s *curriculumService) cleanText(value *string) *string {
	if value == nil {
		return nil
	}
	clean := s.sanitizer.Sanitize(*value)
	return trimmedOrNil(&clean)
}

func (s *curriculumService) today() time.Time {
	return s.now().In(s.location)
}

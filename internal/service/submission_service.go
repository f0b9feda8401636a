package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/observability"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

// FileUploader stores an uploaded paper under key and returns its public URL.
// Keys look like "assessments/<entity id>/<student id>/<file name>", so a
// re-submission of the same file name lands on the same key.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

var allowedSubmissionTypes = []string{
	"application/pdf",
	"application/zip",
	"application/x-zip-compressed",
	"image/jpeg",
	"image/png",
	"text/plain",
}

// SubmissionService handles student submissions and their verification.
type SubmissionService interface {
	Submit(ctx context.Context, actor Actor, kind models.SubmissionKind, entityID uint, payload dto.SubmissionUpsertRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Verify(ctx context.Context, actor Actor, kind models.SubmissionKind, id uint, payload dto.SubmissionVerifyRequest) (dto.SubmissionResponse, error)
	List(ctx context.Context, actor Actor, kind models.SubmissionKind, req dto.SubmissionListRequest) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	coursework  repository.CourseworkRepository
	validator   *validator.Validate
	uploader    FileUploader
	activity    ActivityRecorder
	events      EventPublisher
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, coursework repository.CourseworkRepository, validate *validator.Validate, uploader FileUploader, activity ActivityRecorder, events EventPublisher, logger zerolog.Logger) SubmissionService {
	if events == nil {
		events = NoopEventPublisher()
	}

	return &submissionService{
		submissions: submissions,
		coursework:  coursework,
		validator:   validate,
		uploader:    uploader,
		activity:    activity,
		events:      events,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/portion-tracker-api/internal/service/submission"),
		now:         time.Now,
	}
}

// Submit stores the student's paper for an assessment or project. A second
// submission for the same entity overwrites the first and clears its
// verification. Only project submissions carry notes.
func (s *submissionService) Submit(ctx context.Context, actor Actor, kind models.SubmissionKind, entityID uint, payload dto.SubmissionUpsertRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if file == nil {
		return dto.SubmissionResponse{}, ErrFileRequired
	}
	if kind == models.SubmissionKindAssessment && trimmedOrNil(payload.Notes) != nil {
		return dto.SubmissionResponse{}, ErrNotesNotAccepted
	}

	ctx, span := s.tracer.Start(ctx, "submissions.submit", trace.WithAttributes(
		attribute.String("submission.kind", string(kind)),
		attribute.Int64("submission.entity_id", int64(entityID)),
	))
	defer span.End()

	entity, err := s.coursework.Get(ctx, kind, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrCourseworkNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if payload.Amount != nil && *payload.Amount > entity.MaxAmount {
		return dto.SubmissionResponse{}, ErrAmountExceedsMax
	}

	if err := validateFileType(file); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if s.uploader == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("file storage is not configured")
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	uploadURL, err := s.uploader.Upload(ctx, uploadKey(kind, entityID, actor.ID, file.Filename), reader)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	var notes *string
	if payload.Notes != nil {
		clean := s.sanitizer.Sanitize(*payload.Notes)
		notes = trimmedOrNil(&clean)
	}

	submission, err := s.submissions.Upsert(ctx, kind, entityID, actor.ID, repository.SubmissionFields{
		Amount:      payload.Amount,
		MaxAmount:   entity.MaxAmount,
		FileURL:     uploadURL,
		FileName:    file.Filename,
		Notes:       notes,
		SubmittedAt: s.now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     EventSubmissionReceived,
		EntityType: string(kind) + "_submission",
		EntityID:   &submission.ID,
		Metadata:   map[string]interface{}{"entity_id": entityID},
	})
	s.events.Publish(ctx, ProgressEvent{
		Type:       EventSubmissionReceived,
		EntityType: string(kind) + "_submission",
		EntityID:   submission.ID,
		ActorID:    actor.ID,
	})

	s.logger.Info().Uint("submission_id", submission.ID).Str("kind", string(kind)).Msg("submission stored")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Verify(ctx context.Context, actor Actor, kind models.SubmissionKind, id uint, payload dto.SubmissionVerifyRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	entity, err := s.coursework.Get(ctx, kind, submission.EntityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrCourseworkNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if !actor.Can(models.CapabilityManageAllPortions) && entity.FacilitatorID != actor.ID {
		return dto.SubmissionResponse{}, ErrCourseworkForbidden
	}

	if payload.Amount != nil && *payload.Amount > submission.Maximum {
		return dto.SubmissionResponse{}, ErrAmountExceedsMax
	}

	err = s.submissions.SetVerification(ctx, kind, id, repository.Verification{
		Verified:   payload.Verified,
		Amount:     payload.Amount,
		VerifierID: actor.ID,
		At:         s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		s.logger.Error().Err(err).Uint("submission_id", id).Msg("failed to verify submission")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionVerifications().WithLabelValues(string(kind), strconv.FormatBool(payload.Verified)).Inc()

	metadata := map[string]interface{}{"verified": payload.Verified, "entity_id": submission.EntityID}
	if payload.Amount != nil {
		metadata["amount"] = *payload.Amount
	}
	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     EventSubmissionVerified,
		EntityType: string(kind) + "_submission",
		EntityID:   &id,
		Metadata:   metadata,
	})
	s.events.Publish(ctx, ProgressEvent{
		Type:       EventSubmissionVerified,
		EntityType: string(kind) + "_submission",
		EntityID:   id,
		ActorID:    actor.ID,
	})

	updated, err := s.submissions.GetByID(ctx, kind, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) List(ctx context.Context, actor Actor, kind models.SubmissionKind, req dto.SubmissionListRequest) ([]dto.SubmissionResponse, error) {
	filter := repository.SubmissionFilter{
		EntityID:  req.EntityID,
		StudentID: req.StudentID,
	}
	if actor.Can(models.CapabilitySubmitWork) && !actor.Can(models.CapabilityVerifySubmissions) {
		filter.StudentID = &actor.ID
	}

	submissions, err := s.submissions.List(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func validateFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, allowed := range allowedSubmissionTypes {
		if mime.Is(allowed) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}

func uploadKey(kind models.SubmissionKind, entityID, studentID uint, filename string) string {
	return fmt.Sprintf("%ss/%d/%d/%s", kind, entityID, studentID, path.Base(filename))
}

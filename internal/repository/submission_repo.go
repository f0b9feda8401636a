package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	EntityID     *uint
	StudentID    *uint
	VerifiedOnly bool
}

// SubmissionFields carries the student-supplied part of a submission.
type SubmissionFields struct {
	Amount      *float64
	MaxAmount   float64
	FileURL     string
	FileName    string
	Notes       *string
	SubmittedAt time.Time
}

// Verification carries the facilitator-supplied part of a submission.
type Verification struct {
	Verified   bool
	Amount     *float64
	VerifierID uint
	At         time.Time
}

// SubmissionRepository stores assessment papers and project submissions
// behind one kind-aware API.
type SubmissionRepository interface {
	List(ctx context.Context, kind models.SubmissionKind, filter SubmissionFilter) ([]models.Submission, error)
	ListVerified(ctx context.Context, kind models.SubmissionKind) ([]models.Submission, error)
	GetByID(ctx context.Context, kind models.SubmissionKind, id uint) (models.Submission, error)
	Upsert(ctx context.Context, kind models.SubmissionKind, entityID, studentID uint, fields SubmissionFields) (models.Submission, error)
	SetVerification(ctx context.Context, kind models.SubmissionKind, id uint, verification Verification) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionTable struct {
	model       interface{}
	entityCol   string
	amountCol   string
	maxCol      string
	uniqueIndex []clause.Column
}

func tableFor(kind models.SubmissionKind) (submissionTable, error) {
	switch kind {
	case models.SubmissionKindAssessment:
		return submissionTable{
			model:       &models.AssessmentSubmission{},
			entityCol:   "assessment_id",
			amountCol:   "marks_obtained",
			maxCol:      "max_marks",
			uniqueIndex: []clause.Column{{Name: "assessment_id"}, {Name: "student_id"}},
		}, nil
	case models.SubmissionKindProject:
		return submissionTable{
			model:       &models.ProjectSubmission{},
			entityCol:   "project_id",
			amountCol:   "score",
			maxCol:      "max_score",
			uniqueIndex: []clause.Column{{Name: "project_id"}, {Name: "student_id"}},
		}, nil
	default:
		return submissionTable{}, fmt.Errorf("unsupported submission kind %q", kind)
	}
}

func (r *submissionRepository) query(ctx context.Context, table submissionTable, filter SubmissionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(table.model).Preload("Student")
	if filter.EntityID != nil {
		query = query.Where(table.entityCol+" = ?", *filter.EntityID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.VerifiedOnly {
		query = query.Where("verified = ?", true)
	}
	return query.Order("submitted_at ASC, id ASC")
}

func (r *submissionRepository) List(ctx context.Context, kind models.SubmissionKind, filter SubmissionFilter) ([]models.Submission, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case models.SubmissionKindAssessment:
		var rows []models.AssessmentSubmission
		if err := r.query(ctx, table, filter).Find(&rows).Error; err != nil {
			return nil, err
		}
		result := make([]models.Submission, 0, len(rows))
		for _, row := range rows {
			result = append(result, row.View())
		}
		return result, nil
	default:
		var rows []models.ProjectSubmission
		if err := r.query(ctx, table, filter).Find(&rows).Error; err != nil {
			return nil, err
		}
		result := make([]models.Submission, 0, len(rows))
		for _, row := range rows {
			result = append(result, row.View())
		}
		return result, nil
	}
}

func (r *submissionRepository) ListVerified(ctx context.Context, kind models.SubmissionKind) ([]models.Submission, error) {
	return r.List(ctx, kind, SubmissionFilter{VerifiedOnly: true})
}

func (r *submissionRepository) GetByID(ctx context.Context, kind models.SubmissionKind, id uint) (models.Submission, error) {
	switch kind {
	case models.SubmissionKindAssessment:
		var row models.AssessmentSubmission
		if err := r.db.WithContext(ctx).Preload("Student").First(&row, id).Error; err != nil {
			return models.Submission{}, err
		}
		return row.View(), nil
	case models.SubmissionKindProject:
		var row models.ProjectSubmission
		if err := r.db.WithContext(ctx).Preload("Student").First(&row, id).Error; err != nil {
			return models.Submission{}, err
		}
		return row.View(), nil
	default:
		return models.Submission{}, fmt.Errorf("unsupported submission kind %q", kind)
	}
}

// Upsert inserts or overwrites the submission keyed on (entity, student).
// An overwrite drops any earlier verification.
func (r *submissionRepository) Upsert(ctx context.Context, kind models.SubmissionKind, entityID, studentID uint, fields SubmissionFields) (models.Submission, error) {
	table, err := tableFor(kind)
	if err != nil {
		return models.Submission{}, err
	}

	updates := []string{table.amountCol, table.maxCol, "file_url", "file_name", "verified", "verified_by", "verified_at", "submitted_at", "updated_at"}

	var row interface{}
	switch kind {
	case models.SubmissionKindAssessment:
		row = &models.AssessmentSubmission{
			AssessmentID:  entityID,
			StudentID:     studentID,
			MarksObtained: fields.Amount,
			MaxMarks:      fields.MaxAmount,
			FileURL:       fields.FileURL,
			FileName:      fields.FileName,
			SubmittedAt:   fields.SubmittedAt,
		}
	default:
		row = &models.ProjectSubmission{
			ProjectID:   entityID,
			StudentID:   studentID,
			Score:       fields.Amount,
			MaxScore:    fields.MaxAmount,
			FileURL:     fields.FileURL,
			FileName:    fields.FileName,
			Notes:       fields.Notes,
			SubmittedAt: fields.SubmittedAt,
		}
		updates = append(updates, "notes")
	}

	err = r.db.WithContext(ctx).Omit("Student").Clauses(clause.OnConflict{
		Columns:   table.uniqueIndex,
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(row).Error
	if err != nil {
		return models.Submission{}, err
	}

	items, err := r.List(ctx, kind, SubmissionFilter{EntityID: &entityID, StudentID: &studentID})
	if err != nil {
		return models.Submission{}, err
	}
	if len(items) == 0 {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return items[0], nil
}

func (r *submissionRepository) SetVerification(ctx context.Context, kind models.SubmissionKind, id uint, verification Verification) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"verified":    verification.Verified,
		"verified_by": nil,
		"verified_at": nil,
	}
	if verification.Verified {
		updates["verified_by"] = verification.VerifierID
		updates["verified_at"] = verification.At
	}
	if verification.Amount != nil {
		updates[table.amountCol] = *verification.Amount
	}

	result := r.db.WithContext(ctx).Model(table.model).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

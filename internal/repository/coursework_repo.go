package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// CourseworkFilter narrows assessment and project queries.
type CourseworkFilter struct {
	SubjectID      *uint
	DepartmentID   *uint
	FacilitatorID  *uint
	AcademicYearID *uint
}

// CourseworkRepository stores assessments and projects behind one API.
type CourseworkRepository interface {
	List(ctx context.Context, kind models.SubmissionKind, filter CourseworkFilter) ([]models.Coursework, error)
	Get(ctx context.Context, kind models.SubmissionKind, id uint) (models.Coursework, error)
	CreateAssessment(ctx context.Context, assessment *models.Assessment) error
	CreateProject(ctx context.Context, project *models.Project) error
	MarkCompleted(ctx context.Context, kind models.SubmissionKind, id uint, day time.Time) error
}

type courseworkRepository struct {
	db *gorm.DB
}

// NewCourseworkRepository constructs a coursework repository.
func NewCourseworkRepository(db *gorm.DB) CourseworkRepository {
	return &courseworkRepository{db: db}
}

func (r *courseworkRepository) scoped(ctx context.Context, model interface{}, table string, filter CourseworkFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(model).Preload("Subject")
	if filter.SubjectID != nil {
		query = query.Where(table+".subject_id = ?", *filter.SubjectID)
	}
	if filter.DepartmentID != nil || filter.FacilitatorID != nil || filter.AcademicYearID != nil {
		subjects := r.db.Model(&models.Subject{}).Select("id")
		if filter.DepartmentID != nil {
			subjects = subjects.Where("department_id = ?", *filter.DepartmentID)
		}
		if filter.FacilitatorID != nil {
			subjects = subjects.Where("facilitator_id = ?", *filter.FacilitatorID)
		}
		if filter.AcademicYearID != nil {
			subjects = subjects.Where("academic_year_id = ?", *filter.AcademicYearID)
		}
		query = query.Where(table+".subject_id IN (?)", subjects)
	}
	return query
}

func (r *courseworkRepository) List(ctx context.Context, kind models.SubmissionKind, filter CourseworkFilter) ([]models.Coursework, error) {
	switch kind {
	case models.SubmissionKindAssessment:
		var rows []models.Assessment
		if err := r.scoped(ctx, &models.Assessment{}, "assessments", filter).Order("scheduled_date ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		items := make([]models.Coursework, 0, len(rows))
		for _, row := range rows {
			items = append(items, row.View())
		}
		return items, nil
	case models.SubmissionKindProject:
		var rows []models.Project
		if err := r.scoped(ctx, &models.Project{}, "projects", filter).Order("due_date ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		items := make([]models.Coursework, 0, len(rows))
		for _, row := range rows {
			items = append(items, row.View())
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unsupported coursework kind %q", kind)
	}
}

func (r *courseworkRepository) Get(ctx context.Context, kind models.SubmissionKind, id uint) (models.Coursework, error) {
	switch kind {
	case models.SubmissionKindAssessment:
		var row models.Assessment
		if err := r.db.WithContext(ctx).Preload("Subject").First(&row, id).Error; err != nil {
			return models.Coursework{}, err
		}
		return row.View(), nil
	case models.SubmissionKindProject:
		var row models.Project
		if err := r.db.WithContext(ctx).Preload("Subject").First(&row, id).Error; err != nil {
			return models.Coursework{}, err
		}
		return row.View(), nil
	default:
		return models.Coursework{}, fmt.Errorf("unsupported coursework kind %q", kind)
	}
}

func (r *courseworkRepository) CreateAssessment(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Omit("Subject").Create(assessment).Error
}

func (r *courseworkRepository) CreateProject(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Subject").Create(project).Error
}

func (r *courseworkRepository) MarkCompleted(ctx context.Context, kind models.SubmissionKind, id uint, day time.Time) error {
	var result *gorm.DB
	switch kind {
	case models.SubmissionKindAssessment:
		result = r.db.WithContext(ctx).Model(&models.Assessment{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_completed": true, "conducted_date": day})
	case models.SubmissionKindProject:
		result = r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_completed": true, "completed_date": day})
	default:
		return fmt.Errorf("unsupported coursework kind %q", kind)
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

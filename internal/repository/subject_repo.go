package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// SubjectFilter narrows subject queries.
type SubjectFilter struct {
	AcademicYearID *uint
	DepartmentID   *uint
	FacilitatorID  *uint
}

// SubjectRepository reads subjects together with their portions.
type SubjectRepository interface {
	List(ctx context.Context, filter SubjectFilter) ([]models.Subject, error)
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Subject{}).
		Preload("Portions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC, id ASC")
		}).
		Preload("Department").
		Preload("Facilitator")
}

func (r *subjectRepository) List(ctx context.Context, filter SubjectFilter) ([]models.Subject, error) {
	query := r.baseQuery(ctx)

	if filter.AcademicYearID != nil {
		query = query.Where("academic_year_id = ?", *filter.AcademicYearID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.FacilitatorID != nil {
		query = query.Where("facilitator_id = ?", *filter.FacilitatorID)
	}

	var subjects []models.Subject
	if err := query.Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.baseQuery(ctx).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Omit("Department", "AcademicYear", "Facilitator").Create(subject).Error
}

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// AcademicYearRepository provides access to academic years.
type AcademicYearRepository interface {
	List(ctx context.Context) ([]models.AcademicYear, error)
	GetActive(ctx context.Context) (models.AcademicYear, error)
	Create(ctx context.Context, year *models.AcademicYear) error
	Activate(ctx context.Context, id uint) error
}

type academicYearRepository struct {
	db *gorm.DB
}

// NewAcademicYearRepository constructs an academic year repository.
func NewAcademicYearRepository(db *gorm.DB) AcademicYearRepository {
	return &academicYearRepository{db: db}
}

func (r *academicYearRepository) List(ctx context.Context) ([]models.AcademicYear, error) {
	var years []models.AcademicYear
	if err := r.db.WithContext(ctx).Order("start_date DESC").Find(&years).Error; err != nil {
		return nil, err
	}
	return years, nil
}

func (r *academicYearRepository) GetActive(ctx context.Context) (models.AcademicYear, error) {
	var year models.AcademicYear
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("start_date DESC").First(&year).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AcademicYear{}, ErrNoActiveAcademicYear
	}
	if err != nil {
		return models.AcademicYear{}, err
	}
	return year, nil
}

func (r *academicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	return r.db.WithContext(ctx).Create(year).Error
}

// Activate flags one year active and clears the flag everywhere else in a
// single transaction.
func (r *academicYearRepository) Activate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var year models.AcademicYear
		if err := tx.First(&year, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AcademicYear{}).Where("id <> ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&year).Update("is_active", true).Error
	})
}

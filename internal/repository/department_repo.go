package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// DepartmentRepository provides access to departments.
type DepartmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	GetByID(ctx context.Context, id uint) (models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id uint) error
	CountSubjects(ctx context.Context, academicYearID *uint) (map[uint]int64, error)
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository constructs a department repository.
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id uint) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).First(&department, id).Error; err != nil {
		return models.Department{}, err
	}
	return department, nil
}

func (r *departmentRepository) Create(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

func (r *departmentRepository) Update(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Save(department).Error
}

// Delete removes the department row only; subjects and users referencing it
// are left untouched.
func (r *departmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Department{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *departmentRepository) CountSubjects(ctx context.Context, academicYearID *uint) (map[uint]int64, error) {
	type row struct {
		DepartmentID uint
		Total        int64
	}

	query := r.db.WithContext(ctx).Model(&models.Subject{}).
		Select("department_id, COUNT(*) AS total").
		Group("department_id")
	if academicYearID != nil {
		query = query.Where("academic_year_id = ?", *academicYearID)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, item := range rows {
		counts[item.DepartmentID] = item.Total
	}
	return counts, nil
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// PortionRepository is the only write path into portions.
type PortionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Portion, error)
	Create(ctx context.Context, portion *models.Portion) error
	SetCompletion(ctx context.Context, id uint, completed bool, completedDate *time.Time, notes *string) error
}

type portionRepository struct {
	db *gorm.DB
}

// NewPortionRepository constructs a portion repository.
func NewPortionRepository(db *gorm.DB) PortionRepository {
	return &portionRepository{db: db}
}

func (r *portionRepository) GetByID(ctx context.Context, id uint) (models.Portion, error) {
	var portion models.Portion
	if err := r.db.WithContext(ctx).First(&portion, id).Error; err != nil {
		return models.Portion{}, err
	}
	return portion, nil
}

func (r *portionRepository) Create(ctx context.Context, portion *models.Portion) error {
	return r.db.WithContext(ctx).Create(portion).Error
}

// SetCompletion writes is_completed, completed_date and notes in a single
// UPDATE statement.
func (r *portionRepository) SetCompletion(ctx context.Context, id uint, completed bool, completedDate *time.Time, notes *string) error {
	result := r.db.WithContext(ctx).Model(&models.Portion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_completed":   completed,
			"completed_date": completedDate,
			"notes":          notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

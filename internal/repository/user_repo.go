package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// UserFilter narrows user queries.
type UserFilter struct {
	Role         *models.Role
	DepartmentID *uint
	ActiveOnly   bool
}

// UserRepository provides access to accounts.
type UserRepository interface {
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (models.User, error)
	Create(ctx context.Context, user *models.User, departmentIDs []uint) error
	UpdateRole(ctx context.Context, id uint, role models.Role) error
	UpdateProfile(ctx context.Context, id uint, firstName, lastName string) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Preload("Department").
		Preload("Departments")
}

// List matches the department filter against the primary department and
// the user_departments links.
func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := r.baseQuery(ctx)

	if filter.Role != nil {
		query = query.Where("role = ?", string(*filter.Role))
	}
	if filter.DepartmentID != nil {
		linked := r.db.Table("user_departments").Select("user_id").Where("department_id = ?", *filter.DepartmentID)
		query = query.Where("department_id = ? OR id IN (?)", *filter.DepartmentID, linked)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var users []models.User
	if err := query.Order("first_name ASC, last_name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.baseQuery(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Create inserts the user and links it to departmentIDs in one transaction.
func (r *userRepository) Create(ctx context.Context, user *models.User, departmentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Department", "Departments").Create(user).Error; err != nil {
			return err
		}
		if len(departmentIDs) == 0 {
			return nil
		}

		var departments []models.Department
		if err := tx.Where("id IN ?", departmentIDs).Find(&departments).Error; err != nil {
			return err
		}
		if len(departments) != len(departmentIDs) {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(user).Association("Departments").Append(&departments)
	})
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", string(role))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProfile writes both name columns; an empty last name is stored as is.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, firstName, lastName string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete drops the department links before the user row.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{ID: id}
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Association("Departments").Clear(); err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

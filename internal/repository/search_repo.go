package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// PortionMatch is a portion hit together with the name of its subject.
type PortionMatch struct {
	ID          uint
	Name        string
	SubjectID   uint
	SubjectName string
}

// SearchRepository runs case-insensitive substring lookups for the global
// search box. Subject and portion lookups honour a SubjectFilter scope.
type SearchRepository interface {
	Users(ctx context.Context, term string, limit int) ([]models.User, error)
	Subjects(ctx context.Context, term string, scope SubjectFilter, limit int) ([]models.Subject, error)
	Departments(ctx context.Context, term string, limit int) ([]models.Department, error)
	Portions(ctx context.Context, term string, scope SubjectFilter, limit int) ([]PortionMatch, error)
}

type searchRepository struct {
	db *gorm.DB
}

// NewSearchRepository constructs the search repository.
func NewSearchRepository(db *gorm.DB) SearchRepository {
	return &searchRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern lowercases term and wraps it for LOWER(col) LIKE ? ESCAPE '\'.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func (r *searchRepository) Users(ctx context.Context, term string, limit int) ([]models.User, error) {
	pattern := likePattern(term)
	var users []models.User
	err := r.db.WithContext(ctx).
		Where(`LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, pattern, pattern, pattern).
		Order("first_name ASC, last_name ASC, id ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *searchRepository) Subjects(ctx context.Context, term string, scope SubjectFilter, limit int) ([]models.Subject, error) {
	pattern := likePattern(term)
	query := scoped(r.db.WithContext(ctx).Model(&models.Subject{}).Preload("Department"), "", scope).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\'`, pattern, pattern)

	var subjects []models.Subject
	err := query.Order("name ASC, id ASC").Limit(limit).Find(&subjects).Error
	return subjects, err
}

func (r *searchRepository) Departments(ctx context.Context, term string, limit int) ([]models.Department, error) {
	pattern := likePattern(term)
	var departments []models.Department
	err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("name ASC, id ASC").
		Limit(limit).
		Find(&departments).Error
	return departments, err
}

func (r *searchRepository) Portions(ctx context.Context, term string, scope SubjectFilter, limit int) ([]PortionMatch, error) {
	query := r.db.WithContext(ctx).
		Table("portions").
		Select("portions.id, portions.name, portions.subject_id, subjects.name AS subject_name").
		Joins("JOIN subjects ON subjects.id = portions.subject_id").
		Where(`LOWER(portions.name) LIKE ? ESCAPE '\'`, likePattern(term))
	query = scoped(query, "subjects.", scope)

	var matches []PortionMatch
	err := query.Order("portions.name ASC, portions.id ASC").Limit(limit).Scan(&matches).Error
	return matches, err
}

// scoped applies the subject scope using prefix to qualify subject columns.
func scoped(query *gorm.DB, prefix string, scope SubjectFilter) *gorm.DB {
	if scope.AcademicYearID != nil {
		query = query.Where(prefix+"academic_year_id = ?", *scope.AcademicYearID)
	}
	if scope.DepartmentID != nil {
		query = query.Where(prefix+"department_id = ?", *scope.DepartmentID)
	}
	if scope.FacilitatorID != nil {
		query = query.Where(prefix+"facilitator_id = ?", *scope.FacilitatorID)
	}
	return query
}

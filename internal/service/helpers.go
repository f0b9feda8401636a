package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	dateLayout      = "2006-01-02"
)

// Actor is the authenticated user performing a request.
type Actor struct {
	ID   uint
	Role models.Role
	IP   string
}

// Can reports whether the actor's role grants the capability.
func (a Actor) Can(capability models.Capability) bool {
	return a.Role.Can(capability)
}

// subjectScope narrows subject queries to what the actor may see:
// facilitators their own subjects, students their department.
func subjectScope(ctx context.Context, users repository.UserRepository, actor Actor) (repository.SubjectFilter, error) {
	switch {
	case actor.Can(models.CapabilityViewInstitutionProgress):
		return repository.SubjectFilter{}, nil
	case actor.Can(models.CapabilityManageOwnPortions):
		return repository.SubjectFilter{FacilitatorID: &actor.ID}, nil
	default:
		user, err := users.GetByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.SubjectFilter{}, ErrUserNotFound
			}
			return repository.SubjectFilter{}, err
		}
		if user.DepartmentID == nil {
			none := uint(0)
			return repository.SubjectFilter{DepartmentID: &none}, nil
		}
		return repository.SubjectFilter{DepartmentID: user.DepartmentID}, nil
	}
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(value))
}

func normalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func clampPageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func totalPages(total int64, size int) int {
	if size <= 0 || total == 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// degrade swaps a failed read for an empty collection so that one broken
// source does not blank a whole dashboard.
func degrade[T any](logger zerolog.Logger, source string, items []T, err error) []T {
	if err != nil {
		logger.Warn().Err(err).Str("source", source).Msg("read failed, using empty collection")
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portion-tracker-api/internal/middleware"
	"github.com/noah-isme/portion-tracker-api/internal/service"
	"github.com/noah-isme/portion-tracker-api/internal/utils"
)

func actorFromContext(c *fiber.Ctx) service.Actor {
	id, role, _ := middleware.Identity(c)
	return service.Actor{ID: id, Role: role, IP: c.IP()}
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrPortionNotFound, fiber.StatusNotFound},
	{service.ErrSubjectNotFound, fiber.StatusNotFound},
	{service.ErrSubmissionNotFound, fiber.StatusNotFound},
	{service.ErrCourseworkNotFound, fiber.StatusNotFound},
	{service.ErrDepartmentNotFound, fiber.StatusNotFound},
	{service.ErrUserNotFound, fiber.StatusNotFound},
	{service.ErrAcademicYearNotFound, fiber.StatusNotFound},
	{service.ErrAnnouncementNotFound, fiber.StatusNotFound},
	{service.ErrPortionForbidden, fiber.StatusForbidden},
	{service.ErrCourseworkForbidden, fiber.StatusForbidden},
	{service.ErrAmountExceedsMax, fiber.StatusUnprocessableEntity},
	{service.ErrInvalidDateRange, fiber.StatusUnprocessableEntity},
	{service.ErrInvalidCoursework, fiber.StatusUnprocessableEntity},
	{service.ErrAnnouncementEmpty, fiber.StatusUnprocessableEntity},
	{service.ErrNotesNotAccepted, fiber.StatusUnprocessableEntity},
	{service.ErrInvalidRole, fiber.StatusBadRequest},
	{service.ErrInvalidKind, fiber.StatusBadRequest},
	{service.ErrFileRequired, fiber.StatusBadRequest},
	{service.ErrEntityTypeRequired, fiber.StatusBadRequest},
	{service.ErrFirstNameRequired, fiber.StatusBadRequest},
	{service.ErrUnsupportedFileType, fiber.StatusUnsupportedMediaType},
}

// respondError maps service sentinels and validator failures to 4xx and
// logs everything else as a 500.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(validationErrors))
	}

	for _, candidate := range errorStatuses {
		if errors.Is(err, candidate.err) {
			return utils.SendError(c, candidate.status, err.Error())
		}
	}

	requestLogger := middleware.RequestLogger(logger, c)
	requestLogger.Error().Err(err).Str("path", c.Path()).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

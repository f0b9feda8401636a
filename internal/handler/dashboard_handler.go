package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portion-tracker-api/internal/middleware"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/service"
	"github.com/noah-isme/portion-tracker-api/internal/utils"
)

// DashboardHandler serves the role dashboards and the grouped progress lists.
type DashboardHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.ProgressService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches /dashboard and /progress routes.
func (h *DashboardHandler) Register(router fiber.Router) {
	institution := middleware.RequireCapability(models.CapabilityViewInstitutionProgress)

	dashboards := router.Group("/dashboard")
	dashboards.Get("/institution", institution, h.institution)
	dashboards.Get("/facilitator", middleware.RequireCapability(models.CapabilityViewFacilitatorDash), h.facilitator)
	dashboards.Get("/student", middleware.RequireCapability(models.CapabilityViewStudentDash), h.student)

	progress := router.Group("/progress")
	progress.Get("/subjects", h.subjects)
	progress.Get("/departments", institution, h.departments)
	progress.Get("/facilitators", institution, h.facilitators)
}

func (h *DashboardHandler) institution(c *fiber.Ctx) error {
	response, err := h.service.InstitutionDashboard(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "institution dashboard", response)
}

func (h *DashboardHandler) facilitator(c *fiber.Ctx) error {
	response, err := h.service.FacilitatorDashboard(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "facilitator dashboard", response)
}

func (h *DashboardHandler) student(c *fiber.Ctx) error {
	response, err := h.service.StudentDashboard(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "student dashboard", response)
}

func (h *DashboardHandler) subjects(c *fiber.Ctx) error {
	var departmentID *uint
	if raw := c.Query("department_id"); raw != "" {
		parsed, err := parseQueryInt(c, "department_id")
		if err != nil || parsed <= 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid department_id")
		}
		id := uint(parsed)
		departmentID = &id
	}

	response, err := h.service.SubjectProgress(requestContext(c), actorFromContext(c), departmentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "subject progress", response)
}

func (h *DashboardHandler) departments(c *fiber.Ctx) error {
	response, err := h.service.DepartmentProgress(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "department progress", response)
}

func (h *DashboardHandler) facilitators(c *fiber.Ctx) error {
	response, err := h.service.FacilitatorProgress(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "facilitator progress", response)
}

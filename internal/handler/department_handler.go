package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/middleware"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/service"
	"github.com/noah-isme/portion-tracker-api/internal/utils"
)

// DepartmentHandler exposes department administration.
type DepartmentHandler struct {
	service service.DepartmentService
	logger  zerolog.Logger
}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler(service service.DepartmentService, logger zerolog.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		service: service,
		logger:  logger.With().Str("component", "department_handler").Logger(),
	}
}

// Register attaches department routes; reads are open to any signed-in user.
func (h *DepartmentHandler) Register(router fiber.Router) {
	manage := middleware.RequireCapability(models.CapabilityManageDepartments)

	router.Get("", h.list)
	router.Post("", manage, h.create)
	router.Put("/:id", manage, h.update)
	router.Delete("/:id", manage, h.delete)
}

func (h *DepartmentHandler) list(c *fiber.Ctx) error {
	departments, err := h.service.List(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "departments retrieved", departments)
}

func (h *DepartmentHandler) create(c *fiber.Ctx) error {
	var payload dto.DepartmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	department, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendCreated(c, "department created", department)
}

func (h *DepartmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DepartmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	department, err := h.service.Update(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "department updated", department)
}

func (h *DepartmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "department deleted", nil)
}

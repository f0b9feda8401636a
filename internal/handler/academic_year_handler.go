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

// AcademicYearHandler exposes academic year administration.
type AcademicYearHandler struct {
	service service.AcademicYearService
	logger  zerolog.Logger
}

// NewAcademicYearHandler constructs the handler.
func NewAcademicYearHandler(service service.AcademicYearService, logger zerolog.Logger) *AcademicYearHandler {
	return &AcademicYearHandler{
		service: service,
		logger:  logger.With().Str("component", "academic_year_handler").Logger(),
	}
}

// Register attaches academic year routes.
func (h *AcademicYearHandler) Register(router fiber.Router) {
	manage := middleware.RequireCapability(models.CapabilityManageAcademicYears)

	router.Get("", h.list)
	router.Get("/active", h.active)
	router.Post("", manage, h.create)
	router.Post("/:id/activate", manage, h.activate)
}

func (h *AcademicYearHandler) list(c *fiber.Ctx) error {
	years, err := h.service.List(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "academic years retrieved", years)
}

func (h *AcademicYearHandler) active(c *fiber.Ctx) error {
	year, err := h.service.Active(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "active academic year", year)
}

func (h *AcademicYearHandler) create(c *fiber.Ctx) error {
	var payload dto.AcademicYearCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	year, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendCreated(c, "academic year created", year)
}

func (h *AcademicYearHandler) activate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	year, err := h.service.Activate(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "academic year activated", year)
}

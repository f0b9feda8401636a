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

// CourseworkHandler manages assessments and projects under /coursework/:kind.
type CourseworkHandler struct {
	service service.CourseworkService
	logger  zerolog.Logger
}

// NewCourseworkHandler constructs the handler.
func NewCourseworkHandler(service service.CourseworkService, logger zerolog.Logger) *CourseworkHandler {
	return &CourseworkHandler{
		service: service,
		logger:  logger.With().Str("component", "coursework_handler").Logger(),
	}
}

// Register attaches the coursework routes.
func (h *CourseworkHandler) Register(router fiber.Router) {
	manage := middleware.RequireCapability(models.CapabilityManageCoursework)

	router.Get("/:kind", h.list)
	router.Post("/:kind", manage, h.create)
	router.Patch("/:kind/:id/complete", manage, h.complete)
}

func (h *CourseworkHandler) list(c *fiber.Ctx) error {
	kind, err := service.ParseKind(c.Params("kind"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.CourseworkListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	items, err := h.service.List(requestContext(c), actorFromContext(c), kind, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, string(kind)+"s retrieved", items)
}

func (h *CourseworkHandler) create(c *fiber.Ctx) error {
	kind, err := service.ParseKind(c.Params("kind"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.CourseworkCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.service.Create(requestContext(c), actorFromContext(c), kind, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendCreated(c, string(kind)+" created", item)
}

func (h *CourseworkHandler) complete(c *fiber.Ctx) error {
	kind, err := service.ParseKind(c.Params("kind"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	item, err := h.service.Complete(requestContext(c), actorFromContext(c), kind, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, string(kind)+" completed", item)
}

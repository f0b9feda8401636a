package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/middleware"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/service"
	"github.com/noah-isme/portion-tracker-api/internal/utils"
)

// CurriculumHandler exposes subjects and their portions.
type CurriculumHandler struct {
	progress   service.ProgressService
	curriculum service.CurriculumService
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewCurriculumHandler constructs the handler.
func NewCurriculumHandler(progress service.ProgressService, curriculum service.CurriculumService, validate *validator.Validate, logger zerolog.Logger) *CurriculumHandler {
	return &CurriculumHandler{
		progress:   progress,
		curriculum: curriculum,
		validator:  validate,
		logger:     logger.With().Str("component", "curriculum_handler").Logger(),
	}
}

// Register attaches /subjects and /portions routes.
func (h *CurriculumHandler) Register(router fiber.Router) {
	manage := middleware.RequireCapability(models.CapabilityManageAllPortions, models.CapabilityManageOwnPortions)

	router.Post("/subjects", middleware.RequireCapability(models.CapabilityManageAllPortions), h.createSubject)
	router.Post("/subjects/:id/portions", manage, h.createPortion)

	router.Get("/portions", h.listPortions)
	router.Patch("/portions/:id/completion", manage, h.setCompletion)
}

func (h *CurriculumHandler) listPortions(c *fiber.Ctx) error {
	var req dto.PortionListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.logger, err)
	}

	portions, err := h.progress.ListPortions(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, portions, "portions retrieved", fiber.Map{"total": len(portions)})
}

func (h *CurriculumHandler) createSubject(c *fiber.Ctx) error {
	var payload dto.SubjectCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	subject, err := h.curriculum.CreateSubject(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendCreated(c, "subject created", subject)
}

func (h *CurriculumHandler) createPortion(c *fiber.Ctx) error {
	subjectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PortionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	portion, err := h.curriculum.CreatePortion(requestContext(c), actorFromContext(c), subjectID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendCreated(c, "portion created", portion)
}

func (h *CurriculumHandler) setCompletion(c *fiber.Ctx) error {
	portionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PortionCompletionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	portion, err := h.curriculum.SetPortionCompletion(requestContext(c), actorFromContext(c), portionID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := "portion reopened"
	if payload.Completed {
		message = "portion completed"
	}
	return utils.SendSuccess(c, message, portion)
}

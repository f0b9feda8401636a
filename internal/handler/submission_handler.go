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

// SubmissionHandler manages student submissions and their verification.
type SubmissionHandler struct {
	service service.SubmissionService
	limiter fiber.Handler
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler. limiter guards uploads
// and may be nil.
func NewSubmissionHandler(service service.SubmissionService, limiter fiber.Handler, logger zerolog.Logger) *SubmissionHandler {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &SubmissionHandler{
		service: service,
		limiter: limiter,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("/:kind", h.list)
	router.Post("/:kind/:entityId", middleware.RequireCapability(models.CapabilitySubmitWork), h.limiter, h.submit)
	router.Patch("/:kind/:id/verify", middleware.RequireCapability(models.CapabilityVerifySubmissions), h.verify)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	kind, err := service.ParseKind(c.Params("kind"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.SubmissionListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	submissions, err := h.service.List(requestContext(c), actorFromContext(c), kind, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	kind, err := service.ParseKind(c.Params("kind"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	entityID, err := parseUintParam(c, "entityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form data")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.logger, service.ErrFileRequired)
	}

	submission, err := h.service.Submit(requestContext(c), actorFromContext(c), kind, entityID, payload, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission received", submission)
}

func (h *SubmissionHandler) verify(c *fiber.Ctx) error {
	kind, err := service.ParseKind(c.Params("kind"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Verify(requestContext(c), actorFromContext(c), kind, id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission verified", submission)
}

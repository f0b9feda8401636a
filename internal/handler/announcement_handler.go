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

// AnnouncementHandler lists and publishes announcements.
type AnnouncementHandler struct {
	service service.AnnouncementService
	logger  zerolog.Logger
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service service.AnnouncementService, logger zerolog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		service: service,
		logger:  logger.With().Str("component", "announcement_handler").Logger(),
	}
}

// Register attaches announcement routes.
func (h *AnnouncementHandler) Register(router fiber.Router) {
	manage := middleware.RequireCapability(models.CapabilityManageAnnouncements)

	router.Get("", h.list)
	router.Post("", manage, h.create)
	router.Delete("/:id", manage, h.delete)
}

func (h *AnnouncementHandler) list(c *fiber.Ctx) error {
	var req dto.AnnouncementListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	response, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, response.Items, "announcements retrieved", response.Pagination)
}

func (h *AnnouncementHandler) create(c *fiber.Ctx) error {
	var payload dto.AnnouncementCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	announcement, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendCreated(c, "announcement published", announcement)
}

func (h *AnnouncementHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "announcement deleted", nil)
}

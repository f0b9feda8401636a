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

// ActivityHandler exposes the audit log.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the audit routes; every route needs view_audit_log.
func (h *ActivityHandler) Register(router fiber.Router) {
	guard := middleware.RequireCapability(models.CapabilityViewAuditLog)
	router.Get("", guard, h.list)
	router.Get("/summary", guard, h.summary)
	router.Get("/:entityType/:entityId", guard, h.history)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	actorID, err := parseQueryInt(c, "actor_id")
	if err != nil || actorID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
	}

	entityID, err := parseQueryInt(c, "entity_id")
	if err != nil || entityID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid entity id")
	}
	sinceDays, err := parseQueryInt(c, "since_days")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid since_days")
	}

	response, err := h.service.List(requestContext(c), dto.ActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    uint(actorID),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   uint(entityID),
		SinceDays:  sinceDays,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, response.Items, "activity logs", response.Pagination)
}

func (h *ActivityHandler) summary(c *fiber.Ctx) error {
	days, err := parseQueryInt(c, "days")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid days")
	}

	summary, err := h.service.Summary(requestContext(c), days)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "activity summary", summary)
}

func (h *ActivityHandler) history(c *fiber.Ctx) error {
	entityID, err := parseUintParam(c, "entityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid entity id")
	}

	entries, err := h.service.History(requestContext(c), c.Params("entityType"), entityID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "activity history", entries)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portion-tracker-api/internal/service"
	"github.com/noah-isme/portion-tracker-api/internal/utils"
)

// LeaderboardHandler serves verified-score standings.
type LeaderboardHandler struct {
	service service.LeaderboardService
	logger  zerolog.Logger
}

// NewLeaderboardHandler constructs the handler.
func NewLeaderboardHandler(service service.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		logger:  logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches GET /:kind.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("/:kind", h.get)
}

func (h *LeaderboardHandler) get(c *fiber.Ctx) error {
	kind, err := service.ParseKind(c.Params("kind"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	response, err := h.service.Leaderboard(requestContext(c), kind)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "leaderboard", response)
}

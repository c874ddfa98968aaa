package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

// LeaderboardHandler exposes student and module leaderboards.
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

// Register attaches leaderboard routes to the router group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("", h.students)
	router.Get("/modules/:moduleId", h.module)
}

func (h *LeaderboardHandler) students(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	result, err := h.service.Students(requestContext(c), dto.LeaderboardRequest{
		CourseID: c.Query("course_id"),
		Sort:     c.Query("sort"),
		Limit:    limit,
	})
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to build leaderboard")
	}
	return utils.SendSuccess(c, "leaderboard", result)
}

func (h *LeaderboardHandler) module(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	result, err := h.service.Module(requestContext(c), c.Params("moduleId"), limit)
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to build module leaderboard")
	}
	return utils.SendSuccess(c, "module leaderboard", result)
}

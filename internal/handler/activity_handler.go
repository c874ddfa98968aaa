package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

// ActivityHandler exposes the admin audit trail.
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

// Register attaches activity log routes to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
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

	since, err := parseQueryTime(c, "since")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "since must be an RFC3339 timestamp")
	}

	until, err := parseQueryTime(c, "until")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "until must be an RFC3339 timestamp")
	}

	response, err := h.service.List(requestContext(c), dto.AdminActivityListRequest{
		Page:          page,
		PageSize:      pageSize,
		ActorID:       c.Query("actor_id"),
		Action:        c.Query("action"),
		EntityType:    c.Query("entity_type"),
		EntityID:      c.Query("entity_id"),
		CorrelationID: c.Query("correlation_id"),
		Since:         since,
		Until:         until,
	})
	if errors.Is(err, service.ErrInvalidTimeRange) {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to list activity logs")
	}

	return utils.OK(c, response.Items, "activity logs", response.Pagination)
}

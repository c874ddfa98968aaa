package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

// ModuleActivationHandler exposes the admin module activation endpoints.
type ModuleActivationHandler struct {
	service service.ModuleActivationService
	logger  zerolog.Logger
}

// NewModuleActivationHandler constructs the handler.
func NewModuleActivationHandler(service service.ModuleActivationService, logger zerolog.Logger) *ModuleActivationHandler {
	return &ModuleActivationHandler{
		service: service,
		logger:  logger.With().Str("component", "module_activation_handler").Logger(),
	}
}

// Register attaches module activation routes to the router group.
func (h *ModuleActivationHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:moduleId", h.get)
	router.Post("/:moduleId/activate", h.activate)
	router.Post("/:moduleId/deactivate", h.deactivate)
	router.Post("/:moduleId/schedule-activation", h.scheduleActivation)
	router.Post("/:moduleId/schedule-deactivation", h.scheduleDeactivation)
	router.Post("/:moduleId/deprecate", h.deprecate)
}

func (h *ModuleActivationHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(requestContext(c), c.Query("course_id"))
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to list module activations")
	}
	return utils.SendSuccess(c, "module activations", result)
}

func (h *ModuleActivationHandler) get(c *fiber.Ctx) error {
	result, err := h.service.Get(requestContext(c), c.Params("moduleId"))
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to load module activation")
	}
	return utils.SendSuccess(c, "module activation", result)
}

func (h *ModuleActivationHandler) activate(c *fiber.Ctx) error {
	var payload dto.ActivationChangeRequest
	if err := parseOptionalBody(c, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Activate(requestContext(c), activityActorFromContext(c), c.Params("moduleId"), payload)
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to activate module")
	}
	return utils.SendSuccess(c, "module activated", result)
}

func (h *ModuleActivationHandler) deactivate(c *fiber.Ctx) error {
	var payload dto.ActivationChangeRequest
	if err := parseOptionalBody(c, &payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Deactivate(requestContext(c), activityActorFromContext(c), c.Params("moduleId"), payload)
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to deactivate module")
	}
	return utils.SendSuccess(c, "module deactivated", result)
}

func (h *ModuleActivationHandler) scheduleActivation(c *fiber.Ctx) error {
	payload, err := parseSchedule(c)
	if err != nil {
		return sendDomainError(c, h.logger, err, "invalid payload")
	}

	result, err := h.service.ScheduleActivation(requestContext(c), activityActorFromContext(c), c.Params("moduleId"), payload)
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to schedule module activation")
	}
	return utils.SendSuccess(c, "module activation scheduled", result)
}

func (h *ModuleActivationHandler) scheduleDeactivation(c *fiber.Ctx) error {
	payload, err := parseSchedule(c)
	if err != nil {
		return sendDomainError(c, h.logger, err, "invalid payload")
	}

	result, err := h.service.ScheduleDeactivation(requestContext(c), activityActorFromContext(c), c.Params("moduleId"), payload)
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to schedule module deactivation")
	}
	return utils.SendSuccess(c, "module deactivation scheduled", result)
}

func (h *ModuleActivationHandler) deprecate(c *fiber.Ctx) error {
	result, err := h.service.Deprecate(requestContext(c), activityActorFromContext(c), c.Params("moduleId"))
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to deprecate module")
	}
	return utils.SendSuccess(c, "module deprecated", result)
}

func parseSchedule(c *fiber.Ctx) (dto.ActivationScheduleRequest, error) {
	var payload dto.ActivationScheduleRequest
	if err := c.BodyParser(&payload); err != nil {
		if errors.Is(err, dto.ErrInvalidTimestamp) {
			return dto.ActivationScheduleRequest{}, err
		}
		return dto.ActivationScheduleRequest{}, errInvalidPayload
	}
	return payload, nil
}

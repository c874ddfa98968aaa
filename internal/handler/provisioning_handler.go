package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/middleware"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

// ProvisioningHandler exposes batch provisioning of default activation records.
type ProvisioningHandler struct {
	service service.ProvisioningService
	logger  zerolog.Logger
}

// NewProvisioningHandler constructs a provisioning handler.
func NewProvisioningHandler(service service.ProvisioningService, logger zerolog.Logger) *ProvisioningHandler {
	return &ProvisioningHandler{
		service: service,
		logger:  logger.With().Str("component", "provisioning_handler").Logger(),
	}
}

// Register wires provisioning routes.
func (h *ProvisioningHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, guards...), h.provision)
	router.Post("", handlers...)
}

func (h *ProvisioningHandler) provision(c *fiber.Ctx) error {
	token := c.Get(middleware.ProvisionTokenHeader)

	result, err := h.service.Provision(requestContext(c), activityActorFromContext(c), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProvisioningDisabled):
			return utils.SendError(c, fiber.StatusForbidden, "provisioning disabled")
		case errors.Is(err, service.ErrProvisioningUnauthorized):
			return utils.SendError(c, fiber.StatusForbidden, "invalid token")
		default:
			return sendDomainError(c, h.logger, err, "provisioning failed")
		}
	}

	return utils.SendSuccess(c, "catalog provisioned", result)
}

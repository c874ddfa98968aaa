package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/service"
	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

// ModuleAccessHandler answers whether a student may open a module right now.
type ModuleAccessHandler struct {
	service service.ModuleActivationService
	logger  zerolog.Logger
}

// NewModuleAccessHandler constructs the handler.
func NewModuleAccessHandler(service service.ModuleActivationService, logger zerolog.Logger) *ModuleAccessHandler {
	return &ModuleAccessHandler{
		service: service,
		logger:  logger.With().Str("component", "module_access_handler").Logger(),
	}
}

// Register attaches the access route to the router group.
func (h *ModuleAccessHandler) Register(router fiber.Router) {
	router.Get("/:moduleId/access", h.access)
}

func (h *ModuleAccessHandler) access(c *fiber.Ctx) error {
	result, err := h.service.Access(requestContext(c), c.Params("moduleId"))
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to evaluate module access")
	}
	return utils.SendSuccess(c, "module access", result)
}

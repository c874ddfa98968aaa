package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

// CatalogHandler exposes the module catalog import used by operators.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Register wires catalog routes.
func (h *CatalogHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, guards...), h.importModules)
	router.Post("", handlers...)
}

func (h *CatalogHandler) importModules(c *fiber.Ctx) error {
	var payload dto.CatalogImportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Import(requestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return sendDomainError(c, h.logger, err, "failed to import catalog")
	}

	return utils.SendSuccess(c, "catalog imported", result)
}

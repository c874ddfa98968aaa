package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/middleware"
	"github.com/noah-isme/gema-curriculum-api/internal/ranking"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

var errInvalidPayload = errors.New("invalid payload")

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// parseQueryTime reads an optional RFC3339 query parameter.
func parseQueryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	identity, _ := middleware.IdentityFrom(c)
	return service.ActivityActor{ID: identity.ID, Role: identity.Role}
}

// requestContext is the user context populated by the correlation and auth middleware.
func requestContext(c *fiber.Ctx) context.Context {
	return middleware.ContextWithCorrelation(c.UserContext(), middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// validationDetails maps each rejected field to the rule it broke.
func validationDetails(err error) (map[string]string, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details, true
}

// parseOptionalBody decodes a JSON body when one was sent.
func parseOptionalBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

// sendDomainError maps curriculum errors to HTTP statuses.
func sendDomainError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, errInvalidPayload):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	case errors.Is(err, ranking.ErrUnknownSortKey):
		return utils.SendError(c, fiber.StatusBadRequest, "sort must be one of score, attempts, modules, progress")
	case errors.Is(err, activation.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "module not found")
	case errors.Is(err, activation.ErrAlreadyExists):
		return utils.SendError(c, fiber.StatusConflict, "activation record already exists")
	case errors.Is(err, activation.ErrDeprecated):
		return utils.SendError(c, fiber.StatusConflict, "module is deprecated")
	case errors.Is(err, activation.ErrInvalidSchedule), errors.Is(err, dto.ErrInvalidTimestamp):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "schedule time must be a valid instant in the future")
	case errors.Is(err, service.ErrInvalidCatalog):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, activation.ErrStoreUnavailable):
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusServiceUnavailable, "activation store unavailable")
	default:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

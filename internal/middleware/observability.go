package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/observability"
)

// AdminPathPrefix scopes the routes measured by Observability.
const AdminPathPrefix = "/api/admin"

// Observability measures admin routes and writes one structured line per
// request. Student routes are high volume and only get the access log.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), AdminPathPrefix) {
			return c.Next()
		}

		start := time.Now()
		if err := c.Next(); err != nil {
			// write the response now so the recorded status is the one sent
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)

		route := c.Path()
		if matched := c.Route(); matched != nil && matched.Path != "" {
			route = matched.Path
		}
		status := c.Response().StatusCode()
		observability.ObserveAdminRequest(c.Method(), route, status, elapsed)

		identity, _ := IdentityFrom(c)
		event, msg := adminLogEvent(logger, status)
		event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", c.Method()).
			Str("route", route).
			Str("actor", identity.ID).
			Str("actor_role", identity.Role).
			Int("status", status).
			Dur("latency", elapsed).
			Msg(msg)
		return nil
	}
}

func adminLogEvent(logger zerolog.Logger, status int) (*zerolog.Event, string) {
	switch {
	case status >= fiber.StatusInternalServerError:
		return logger.Error(), "admin request failed"
	case status >= fiber.StatusBadRequest:
		return logger.Warn(), "admin request rejected"
	default:
		return logger.Info(), "admin request served"
	}
}

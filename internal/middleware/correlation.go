package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Headers understood by the curriculum API.
const (
	CorrelationHeader    = "X-Correlation-ID"
	ProvisionTokenHeader = "X-Provision-Token"
	requestIDHeader      = "X-Request-ID"
)

// correlationLocal is also read by the access log format.
const correlationLocal = "correlation_id"

// maxCorrelationLength matches the activity_logs.correlation_id column.
const maxCorrelationLength = 64

type correlationKey struct{}

// CorrelationID tags each request with an identifier that follows it into logs,
// audit entries and activation events. A caller-supplied X-Correlation-ID (or
// X-Request-ID) is kept when it fits the audit column.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := incomingCorrelation(c)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set(CorrelationHeader, id)
		c.SetUserContext(ContextWithCorrelation(c.UserContext(), id))
		return c.Next()
	}
}

func incomingCorrelation(c *fiber.Ctx) string {
	for _, header := range []string{CorrelationHeader, requestIDHeader} {
		value := strings.TrimSpace(c.Get(header))
		if value != "" && len(value) <= maxCorrelationLength {
			return value
		}
	}
	return ""
}

// CorrelationIDFromContext returns the identifier attached by CorrelationID.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// GetCorrelationID returns the identifier of the request being served.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}

// ContextWithCorrelation attaches id to ctx. Blank ids leave ctx untouched so
// background work keeps whatever id it already carries.
func ContextWithCorrelation(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id = strings.TrimSpace(id); id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

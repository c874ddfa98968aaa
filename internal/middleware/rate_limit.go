package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

// RateLimit bounds how often one caller may hit an operation. Callers are
// keyed by identity so an operator cannot dodge the budget by switching
// hosts; unauthenticated requests share a per-IP bucket.
func RateLimit(operation string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if identity, ok := IdentityFrom(c); ok {
				return operation + "|id|" + identity.ID
			}
			return operation + "|ip|" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, operation+" is rate limited, retry after "+window.String())
		},
	})
}

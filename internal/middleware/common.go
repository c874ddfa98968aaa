package middleware

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// accessLogFormat puts the correlation id next to each access line so it can
// be matched with the structured admin request log.
const accessLogFormat = "${time} ${status} ${method} ${path} ${latency} cid=${locals:" + correlationLocal + "}\n"

// Config customises the middleware registration pipeline.
type Config struct {
	Logger *zerolog.Logger
	// AccessLog enables the fiber access log line per request.
	AccessLog bool
	// AllowOrigins lists dashboard origins for CORS. Empty admits any origin.
	AllowOrigins []string
}

// Register attaches the middleware shared by every curriculum route.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	origins := "*"
	if len(cfg.AllowOrigins) > 0 {
		origins = strings.Join(cfg.AllowOrigins, ",")
	}

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.AccessLog}))
	app.Use(CorrelationID())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{Format: accessLogFormat}))
	}
	app.Use(Observability(requestLogger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: strings.Join([]string{
			fiber.HeaderOrigin,
			fiber.HeaderContentType,
			fiber.HeaderAccept,
			fiber.HeaderAuthorization,
			CorrelationHeader,
			ProvisionTokenHeader,
		}, ", "),
		AllowMethods:  "GET,POST,OPTIONS",
		ExposeHeaders: CorrelationHeader,
	}))
}

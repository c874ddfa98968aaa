package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-curriculum-api/internal/config"
	"github.com/noah-isme/gema-curriculum-api/internal/handler"
	"github.com/noah-isme/gema-curriculum-api/internal/middleware"
	"github.com/noah-isme/gema-curriculum-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ModuleActivationHandler *handler.ModuleActivationHandler
	ModuleAccessHandler     *handler.ModuleAccessHandler
	LeaderboardHandler      *handler.LeaderboardHandler
	ProvisioningHandler     *handler.ProvisioningHandler
	CatalogHandler          *handler.CatalogHandler
	ActivityHandler         *handler.ActivityHandler
	ActivationStreamHandler *handler.ActivationStreamHandler
	JWTMiddleware           fiber.Handler
	HealthProbes            map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes, "database"))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	admin := app.Group(middleware.AdminPathPrefix, jwtMiddleware, middleware.RequireStaff())

	if deps.ModuleActivationHandler != nil {
		deps.ModuleActivationHandler.Register(admin.Group("/modules"))
	}

	if deps.LeaderboardHandler != nil {
		deps.LeaderboardHandler.Register(admin.Group("/leaderboard"))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activity"))
	}

	if deps.ProvisioningHandler != nil {
		deps.ProvisioningHandler.Register(
			admin.Group("/provisioning"),
			middleware.RequireRole(middleware.RoleAdmin),
			middleware.RateLimit("provisioning", 3, time.Minute),
		)
	}

	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(admin.Group("/catalog"), middleware.RequireRole(middleware.RoleAdmin))
	}

	if deps.ActivationStreamHandler != nil {
		deps.ActivationStreamHandler.Register(admin.Group("/activations"))
	}

	// Student facing
	if deps.ModuleAccessHandler != nil {
		modules := app.Group("/api/v2/modules", jwtMiddleware, middleware.RequireIdentity())
		deps.ModuleAccessHandler.Register(modules)
	}
}

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/config"
	"github.com/noah-isme/gema-curriculum-api/internal/database"
	"github.com/noah-isme/gema-curriculum-api/internal/handler"
	"github.com/noah-isme/gema-curriculum-api/internal/middleware"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
	"github.com/noah-isme/gema-curriculum-api/internal/router"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := newLogger(os.Stdout, "")
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(os.Stdout, cfg.AppName)

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, caching disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activationRepo := repository.NewModuleActivationRepository(db)
	catalogRepo := repository.NewModuleCatalogRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewActivationEventBus(redisClient, natsConn, cfg.EventsChannel, logger)
	events.Start(ctx)

	activityService := service.NewActivityService(activityRepo, logger)
	activationService := service.NewModuleActivationService(activationRepo, catalogRepo, validate, service.ModuleActivationOptions{
		Cache:    redisClient,
		CacheTTL: cfg.ActivationCacheTTL,
		Activity: activityService,
		Events:   events,
		Location: cfg.Location,
	}, logger)
	leaderboardService := service.NewLeaderboardService(progressRepo, catalogRepo, redisClient, cfg.LeaderboardCacheTTL, cfg.PassingScore, logger)
	provisioningService := service.NewProvisioningService(activationRepo, catalogRepo, activityService, redisClient, cfg.ProvisioningEnabled, cfg.ProvisioningToken, logger)
	catalogService := service.NewCatalogService(catalogRepo, activityService, redisClient, validate, logger)

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AccessLog:    cfg.AppEnv == "development",
		AllowOrigins: cfg.AllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		ModuleActivationHandler: handler.NewModuleActivationHandler(activationService, logger),
		ModuleAccessHandler:     handler.NewModuleAccessHandler(activationService, logger),
		LeaderboardHandler:      handler.NewLeaderboardHandler(leaderboardService, logger),
		ProvisioningHandler:     handler.NewProvisioningHandler(provisioningService, logger),
		CatalogHandler:          handler.NewCatalogHandler(catalogService, logger),
		ActivityHandler:         handler.NewActivityHandler(activityService, logger),
		ActivationStreamHandler: handler.NewActivationStreamHandler(events, logger),
		JWTMiddleware:           middleware.Authenticate(cfg.JWTSecret),
		HealthProbes:            probes,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Str("address", cfg.HTTPAddress()).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cancel, logger)
}

// newLogger builds the process logger. A blank service name is omitted so
// failures before the configuration loads still log as JSON.
func newLogger(w io.Writer, service string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	return ctx.Logger()
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

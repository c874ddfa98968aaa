package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/cli"
	"github.com/noah-isme/gema-curriculum-api/internal/config"
	"github.com/noah-isme/gema-curriculum-api/internal/database"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL, cfg.AppName)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	activationRepo := repository.NewModuleActivationRepository(db)
	catalogRepo := repository.NewModuleCatalogRepository(db)
	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)

	app := &cli.App{
		Activations: service.NewModuleActivationService(activationRepo, catalogRepo, nil, service.ModuleActivationOptions{
			Cache:    redisClient,
			CacheTTL: cfg.ActivationCacheTTL,
			Activity: activityService,
			Location: cfg.Location,
		}, logger),
		Provisioning: service.NewProvisioningService(activationRepo, catalogRepo, activityService, redisClient, cfg.ProvisioningEnabled, cfg.ProvisioningToken, logger),
		Catalog:      service.NewCatalogService(catalogRepo, activityService, redisClient, nil, logger),
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
)

var (
	// ErrProvisioningDisabled indicates provisioning over HTTP is disabled by configuration.
	ErrProvisioningDisabled = errors.New("provisioning is disabled")
	// ErrProvisioningUnauthorized indicates the provided token is invalid.
	ErrProvisioningUnauthorized = errors.New("invalid provisioning token")
)

// ProvisioningService seeds default activation records for the module catalog.
type ProvisioningService interface {
	// Provision is the token guarded entry point used over HTTP.
	Provision(ctx context.Context, actor ActivityActor, token string) (dto.ProvisionResponse, error)
	// Run provisions without the token guard. Operator tooling only.
	Run(ctx context.Context) (dto.ProvisionResponse, error)
}

type provisioningService struct {
	store    activation.Store
	catalog  repository.ModuleCatalogRepository
	activity ActivityRecorder
	cache    *redis.Client
	enabled  bool
	token    string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProvisioningService constructs the provisioning service.
func NewProvisioningService(store activation.Store, catalog repository.ModuleCatalogRepository, activity ActivityRecorder, cache *redis.Client, enabled bool, token string, logger zerolog.Logger) ProvisioningService {
	return &provisioningService{
		store:    store,
		catalog:  catalog,
		activity: activity,
		cache:    cache,
		enabled:  enabled,
		token:    token,
		logger:   logger.With().Str("component", "provisioning_service").Logger(),
		now:      time.Now,
	}
}

func (s *provisioningService) Provision(ctx context.Context, actor ActivityActor, token string) (dto.ProvisionResponse, error) {
	if !s.enabled {
		return dto.ProvisionResponse{}, ErrProvisioningDisabled
	}
	if !s.validateToken(token) {
		return dto.ProvisionResponse{}, ErrProvisioningUnauthorized
	}

	result, err := s.Run(ctx)
	if err != nil {
		return dto.ProvisionResponse{}, err
	}

	if s.activity != nil {
		_, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "catalog.provisioned",
			EntityType: "catalog",
			Metadata: map[string]interface{}{
				"created": len(result.Created),
				"skipped": len(result.Skipped),
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to record provisioning activity")
		}
	}

	return result, nil
}

func (s *provisioningService) Run(ctx context.Context) (dto.ProvisionResponse, error) {
	entries, err := s.catalog.Entries(ctx)
	if err != nil {
		return dto.ProvisionResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}

	now := s.now().UTC()
	summary, err := activation.ProvisionCatalog(ctx, entries, s.store, now)
	if err != nil {
		return dto.ProvisionResponse{}, err
	}

	if len(summary.Created) > 0 {
		purgeCache(ctx, s.cache, activationCachePrefix, s.logger)
	}

	s.logger.Info().
		Int("created", len(summary.Created)).
		Int("skipped", len(summary.Skipped)).
		Msg("module catalog provisioned")

	return dto.ProvisionResponse{
		Created: nonNil(summary.Created),
		Skipped: nonNil(summary.Skipped),
		RanAt:   now,
	}, nil
}

func (s *provisioningService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

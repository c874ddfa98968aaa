package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/models"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
)

// ErrInvalidCatalog indicates an import batch that contradicts itself.
var ErrInvalidCatalog = errors.New("invalid catalog")

// CatalogService maintains the module catalog that activations are gated on.
type CatalogService interface {
	Import(ctx context.Context, actor ActivityActor, req dto.CatalogImportRequest) (dto.CatalogImportResponse, error)
}

type catalogService struct {
	catalog   repository.ModuleCatalogRepository
	activity  ActivityRecorder
	cache     *redis.Client
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(catalog repository.ModuleCatalogRepository, activity ActivityRecorder, cache *redis.Client, validate *validator.Validate, logger zerolog.Logger) CatalogService {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &catalogService{
		catalog:   catalog,
		activity:  activity,
		cache:     cache,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) Import(ctx context.Context, actor ActivityActor, req dto.CatalogImportRequest) (dto.CatalogImportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CatalogImportResponse{}, err
	}

	modules, courses, err := s.normalize(req.Modules)
	if err != nil {
		return dto.CatalogImportResponse{}, err
	}

	affected, err := s.catalog.UpsertBatch(ctx, modules)
	if err != nil {
		return dto.CatalogImportResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}

	purgeCache(ctx, s.cache, activationCachePrefix, s.logger)
	purgeCache(ctx, s.cache, leaderboardCachePrefix, s.logger)

	s.logger.Info().
		Int64("affected", affected).
		Strs("courses", courses).
		Str("actor", actor.ID).
		Msg("module catalog imported")

	if s.activity != nil {
		_, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "catalog.imported",
			EntityType: "catalog",
			Metadata: map[string]interface{}{
				"modules": len(modules),
				"courses": courses,
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to record catalog import activity")
		}
	}

	return dto.CatalogImportResponse{Affected: affected, Courses: courses}, nil
}

// normalize trims and sanitizes the batch and rejects duplicate module ids
// or more than one first module per course.
func (s *catalogService) normalize(items []dto.CatalogModuleRequest) ([]models.Module, []string, error) {
	seen := make(map[string]struct{}, len(items))
	firstByCourse := make(map[string]string)
	courseSet := make(map[string]struct{})

	modules := make([]models.Module, 0, len(items))
	for _, item := range items {
		item.ModuleID = strings.TrimSpace(item.ModuleID)
		item.CourseID = strings.TrimSpace(item.CourseID)
		item.Title = strings.TrimSpace(s.sanitizer.Sanitize(item.Title))
		if item.ModuleID == "" || item.CourseID == "" || item.Title == "" {
			return nil, nil, fmt.Errorf("%w: module, course and title must not be blank", ErrInvalidCatalog)
		}

		if _, dup := seen[item.ModuleID]; dup {
			return nil, nil, fmt.Errorf("%w: module %s listed twice", ErrInvalidCatalog, item.ModuleID)
		}
		seen[item.ModuleID] = struct{}{}

		if item.IsFirst {
			if other, ok := firstByCourse[item.CourseID]; ok {
				return nil, nil, fmt.Errorf("%w: course %s has two first modules (%s, %s)", ErrInvalidCatalog, item.CourseID, other, item.ModuleID)
			}
			firstByCourse[item.CourseID] = item.ModuleID
		}

		courseSet[item.CourseID] = struct{}{}
		modules = append(modules, item.ToModel())
	}

	courses := make([]string, 0, len(courseSet))
	for course := range courseSet {
		courses = append(courses, course)
	}
	sort.Strings(courses)

	return modules, courses, nil
}

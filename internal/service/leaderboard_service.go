package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/observability"
	"github.com/noah-isme/gema-curriculum-api/internal/ranking"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	leaderboardCachePrefix  = "curriculum:leaderboard:v1:"
)

// LeaderboardService builds student and module leaderboards from quiz attempts.
type LeaderboardService interface {
	Students(ctx context.Context, req dto.LeaderboardRequest) (dto.LeaderboardResponse, error)
	Module(ctx context.Context, moduleID string, limit int) (dto.ModuleLeaderboardResponse, error)
}

type leaderboardService struct {
	progress     repository.ProgressRepository
	catalog      repository.ModuleCatalogRepository
	cache        *redis.Client
	ttl          time.Duration
	passingScore int
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewLeaderboardService constructs the leaderboard service.
func NewLeaderboardService(progress repository.ProgressRepository, catalog repository.ModuleCatalogRepository, cache *redis.Client, ttl time.Duration, passingScore int, logger zerolog.Logger) LeaderboardService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if passingScore <= 0 || passingScore > perfectScore {
		passingScore = 70
	}
	return &leaderboardService{
		progress:     progress,
		catalog:      catalog,
		cache:        cache,
		ttl:          ttl,
		passingScore: passingScore,
		logger:       logger.With().Str("component", "leaderboard_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-curriculum-api/internal/service/leaderboard"),
		now:          time.Now,
	}
}

func (s *leaderboardService) Students(ctx context.Context, req dto.LeaderboardRequest) (dto.LeaderboardResponse, error) {
	start := time.Now()
	defer func() {
		observability.ObserveLeaderboard("students", time.Since(start))
	}()

	key, err := ranking.ParseSortKey(req.Sort)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}
	courseID := strings.TrimSpace(req.CourseID)
	limit := clampLeaderboardLimit(req.Limit)
	cacheKey := leaderboardCacheKey(courseID, key, limit)

	if cached, ok := s.fetchCache(ctx, cacheKey); ok {
		cached.CacheHit = true
		observability.CountLeaderboard("students", "hit")
		return cached, nil
	}

	spanCtx, span := s.tracer.Start(ctx, "leaderboard.students", trace.WithAttributes(
		attribute.String("course.id", courseID),
		attribute.String("leaderboard.sort", string(key)),
		attribute.Int("leaderboard.limit", limit),
	))
	defer span.End()

	attempts, err := s.progress.ListAttemptsByCourse(spanCtx, courseID)
	if err != nil {
		span.RecordError(err)
		observability.CountLeaderboard("students", "error")
		return dto.LeaderboardResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}

	moduleCounts, err := s.catalog.CountPerCourse(spanCtx, courseID)
	if err != nil {
		span.RecordError(err)
		observability.CountLeaderboard("students", "error")
		return dto.LeaderboardResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}

	stats := aggregateStudentStats(attempts, moduleCounts, s.passingScore)
	ranked := ranking.Top(ranking.RankStudents(stats, key), limit)

	result := dto.LeaderboardResponse{
		CourseID:    courseID,
		Sort:        string(key),
		Items:       dto.NewStudentRankResponses(ranked),
		GeneratedAt: s.now().UTC(),
	}

	s.writeCache(ctx, cacheKey, result)
	observability.CountLeaderboard("students", "miss")

	return result, nil
}

func (s *leaderboardService) Module(ctx context.Context, moduleID string, limit int) (dto.ModuleLeaderboardResponse, error) {
	start := time.Now()
	defer func() {
		observability.ObserveLeaderboard("module", time.Since(start))
	}()

	moduleID = strings.TrimSpace(moduleID)
	if moduleID == "" {
		return dto.ModuleLeaderboardResponse{}, activation.ErrNotFound
	}
	limit = clampLeaderboardLimit(limit)

	spanCtx, span := s.tracer.Start(ctx, "leaderboard.module", trace.WithAttributes(
		attribute.String("module.id", moduleID),
		attribute.Int("leaderboard.limit", limit),
	))
	defer span.End()

	if _, err := s.catalog.GetByModuleID(spanCtx, moduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ModuleLeaderboardResponse{}, activation.ErrNotFound
		}
		span.RecordError(err)
		return dto.ModuleLeaderboardResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}

	attempts, err := s.progress.ListAttemptsByModule(spanCtx, moduleID)
	if err != nil {
		span.RecordError(err)
		observability.CountLeaderboard("module", "error")
		return dto.ModuleLeaderboardResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}

	stats := aggregateModuleStats(moduleID, attempts, s.passingScore)
	ranked := ranking.Top(ranking.RankModuleAttempts(stats), limit)
	observability.CountLeaderboard("module", "bypass")

	return dto.ModuleLeaderboardResponse{
		ModuleID:    moduleID,
		Items:       dto.NewModuleAttemptRankResponses(ranked),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *leaderboardService) fetchCache(ctx context.Context, key string) (dto.LeaderboardResponse, bool) {
	if s.cache == nil {
		return dto.LeaderboardResponse{}, false
	}
	payload, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return dto.LeaderboardResponse{}, false
	}

	var result dto.LeaderboardResponse
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode leaderboard cache")
		return dto.LeaderboardResponse{}, false
	}
	return result, true
}

func (s *leaderboardService) writeCache(ctx context.Context, key string, result dto.LeaderboardResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode leaderboard cache")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store leaderboard cache")
	}
}

func leaderboardCacheKey(courseID string, key ranking.SortKey, limit int) string {
	if courseID == "" {
		courseID = allCourses
	}
	return leaderboardCachePrefix + strings.Join([]string{courseID, string(key), strconv.Itoa(limit)}, ":")
}

func clampLeaderboardLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLeaderboardLimit
	case limit > maxLeaderboardLimit:
		return maxLeaderboardLimit
	default:
		return limit
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/middleware"
	"github.com/noah-isme/gema-curriculum-api/internal/models"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
)

// Audit errors.
var (
	ErrIncompleteActivity = errors.New("activity entry needs an action and an entity type")
	ErrInvalidTimeRange   = errors.New("until must not precede since")
)

const (
	defaultAuditPageSize = 20
	maxAuditPageSize     = 100
)

// redactedMetadataKeys are masked in audit metadata wherever they appear in a key.
var redactedMetadataKeys = []string{"token", "secret", "password", "email"}

// ActivityActor is the person (or system) behind an audited change.
type ActivityActor struct {
	ID   string
	Role string
}

// ActivityEntry is one audit trail record before persistence.
type ActivityEntry struct {
	ActorID    string
	ActorRole  string
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]interface{}
}

// ActivityRecorder appends to the audit trail.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error)
}

// ActivityService records and queries the audit trail of curriculum changes.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the audit trail service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

// Record stores entry stamped with the request's correlation id. Entries
// without an actor are attributed to the authenticated caller in ctx, or
// to the system when there is none.
func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error) {
	action := lowerTrim(entry.Action)
	entityType := lowerTrim(entry.EntityType)
	if action == "" || entityType == "" {
		return dto.AdminActivityResponse{}, ErrIncompleteActivity
	}

	actorID, actorRole := strings.TrimSpace(entry.ActorID), lowerTrim(entry.ActorRole)
	if actorID == "" {
		if identity, ok := middleware.IdentityFromContext(ctx); ok {
			actorID, actorRole = identity.ID, identity.Role
		}
	}

	log := models.ActivityLog{
		ActorID:       orSystem(actorID),
		ActorRole:     orSystem(actorRole),
		Action:        action,
		EntityType:    entityType,
		EntityID:      strings.TrimSpace(entry.EntityID),
		CorrelationID: middleware.CorrelationIDFromContext(ctx),
		Metadata:      redactMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &log); err != nil {
		s.logger.Error().Err(err).
			Str("action", log.Action).
			Str("entity_id", log.EntityID).
			Str("correlation_id", log.CorrelationID).
			Msg("audit entry lost")
		return dto.AdminActivityResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}

	return dto.NewAdminActivityResponse(log), nil
}

func (s *activityService) List(ctx context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error) {
	filter, err := auditFilter(req)
	if err != nil {
		return dto.AdminActivityListResponse{}, err
	}

	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AdminActivityListResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}

	items := make([]dto.AdminActivityResponse, len(logs))
	for i, log := range logs {
		items[i] = dto.NewAdminActivityResponse(log)
	}

	pages := 1
	if total > 0 {
		pages = int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	}

	return dto.AdminActivityListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: pages,
		},
	}, nil
}

func auditFilter(req dto.AdminActivityListRequest) (repository.ActivityLogFilter, error) {
	if req.Since != nil && req.Until != nil && req.Until.Before(*req.Since) {
		return repository.ActivityLogFilter{}, ErrInvalidTimeRange
	}

	filter := repository.ActivityLogFilter{
		Page:          max(req.Page, 1),
		PageSize:      req.PageSize,
		ActorID:       strings.TrimSpace(req.ActorID),
		Action:        lowerTrim(req.Action),
		EntityType:    lowerTrim(req.EntityType),
		EntityID:      strings.TrimSpace(req.EntityID),
		CorrelationID: strings.TrimSpace(req.CorrelationID),
		Since:         req.Since,
		Until:         req.Until,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultAuditPageSize
	}
	filter.PageSize = min(filter.PageSize, maxAuditPageSize)
	return filter, nil
}

// redactMetadata copies metadata, masking sensitive values at any depth.
func redactMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for key, value := range metadata {
		out[key] = redactValue(key, value)
	}
	return out
}

func redactValue(key string, value interface{}) interface{} {
	lower := strings.ToLower(key)
	for _, sensitive := range redactedMetadataKeys {
		if strings.Contains(lower, sensitive) {
			return "***"
		}
	}
	if nested, ok := value.(map[string]interface{}); ok {
		return map[string]interface{}(redactMetadata(nested))
	}
	return value
}

func lowerTrim(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func orSystem(value string) string {
	if value == "" {
		return activation.SystemActor
	}
	return value
}

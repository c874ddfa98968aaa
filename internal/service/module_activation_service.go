package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/models"
	"github.com/noah-isme/gema-curriculum-api/internal/observability"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
)

// Transition names used for metrics, audit actions and events.
const (
	TransitionActivate             = "activate"
	TransitionDeactivate           = "deactivate"
	TransitionScheduleActivation   = "schedule_activation"
	TransitionScheduleDeactivation = "schedule_deactivation"
	TransitionDeprecate            = "deprecate"
)

const activationCachePrefix = "curriculum:activations:v1:"

var transitionActions = map[string]string{
	TransitionActivate:             "module.activated",
	TransitionDeactivate:           "module.deactivated",
	TransitionScheduleActivation:   "module.activation_scheduled",
	TransitionScheduleDeactivation: "module.deactivation_scheduled",
	TransitionDeprecate:            "module.deprecated",
}

// ModuleActivationService administers module availability.
type ModuleActivationService interface {
	List(ctx context.Context, courseID string) (dto.ModuleActivationListResponse, error)
	Get(ctx context.Context, moduleID string) (dto.ModuleActivationResponse, error)
	Access(ctx context.Context, moduleID string) (dto.ModuleAccessResponse, error)
	Activate(ctx context.Context, actor ActivityActor, moduleID string, req dto.ActivationChangeRequest) (dto.ModuleActivationResponse, error)
	Deactivate(ctx context.Context, actor ActivityActor, moduleID string, req dto.ActivationChangeRequest) (dto.ModuleActivationResponse, error)
	ScheduleActivation(ctx context.Context, actor ActivityActor, moduleID string, req dto.ActivationScheduleRequest) (dto.ModuleActivationResponse, error)
	ScheduleDeactivation(ctx context.Context, actor ActivityActor, moduleID string, req dto.ActivationScheduleRequest) (dto.ModuleActivationResponse, error)
	Deprecate(ctx context.Context, actor ActivityActor, moduleID string) (dto.ModuleActivationResponse, error)
}

// ModuleActivationOptions carries optional collaborators of the service.
type ModuleActivationOptions struct {
	Cache    *redis.Client
	CacheTTL time.Duration
	Activity ActivityRecorder
	Events   ActivationEventBus
	Location *time.Location
}

type moduleActivationService struct {
	manager   *activation.Manager
	store     activation.Store
	catalog   repository.ModuleCatalogRepository
	activity  ActivityRecorder
	events    ActivationEventBus
	validator *validator.Validate
	cache     *redis.Client
	ttl       time.Duration
	location  *time.Location
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// courseSnapshot is the cached raw state of a course. Statuses are evaluated
// per read and never cached.
type courseSnapshot struct {
	Modules []models.Module     `json:"modules"`
	Records []activation.Record `json:"records"`
}

// NewModuleActivationService constructs the module activation service.
func NewModuleActivationService(store activation.Store, catalog repository.ModuleCatalogRepository, validate *validator.Validate, opts ModuleActivationOptions, logger zerolog.Logger) ModuleActivationService {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	location := opts.Location
	if location == nil {
		location = time.UTC
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &moduleActivationService{
		manager:   activation.NewManager(store, catalog),
		store:     store,
		catalog:   catalog,
		activity:  opts.Activity,
		events:    opts.Events,
		validator: validate,
		cache:     opts.Cache,
		ttl:       ttl,
		location:  location,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "module_activation_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-curriculum-api/internal/service/module_activation"),
		now:       time.Now,
	}
}

func (s *moduleActivationService) List(ctx context.Context, courseID string) (dto.ModuleActivationListResponse, error) {
	courseID = strings.TrimSpace(courseID)
	now := s.clock()

	snapshot, hit := s.fetchCache(ctx, courseID)
	if !hit {
		modules, err := s.catalog.List(ctx, courseID)
		if err != nil {
			return dto.ModuleActivationListResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
		}

		var records []activation.Record
		if courseID == "" {
			records, err = s.store.GetAll(ctx)
		} else {
			records, err = s.store.GetByCourse(ctx, courseID)
		}
		if err != nil {
			return dto.ModuleActivationListResponse{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
		}

		snapshot = courseSnapshot{Modules: modules, Records: records}
		s.writeCache(ctx, courseID, snapshot)
	}

	byModule := make(map[string]activation.Record, len(snapshot.Records))
	for _, record := range snapshot.Records {
		byModule[record.ModuleID] = record
	}

	items := make([]dto.ModuleActivationResponse, 0, len(snapshot.Modules))
	for _, module := range snapshot.Modules {
		record, initialized := byModule[module.ModuleID]
		if !initialized {
			record = activation.Default(repository.CatalogEntry(module), now)
		}
		items = append(items, dto.NewModuleActivationResponse(record, moduleMeta(module), initialized, now))
	}

	return dto.ModuleActivationListResponse{
		CourseID:    courseID,
		Items:       items,
		EvaluatedAt: now,
		CacheHit:    hit,
	}, nil
}

func (s *moduleActivationService) Get(ctx context.Context, moduleID string) (dto.ModuleActivationResponse, error) {
	module, err := s.module(ctx, moduleID)
	if err != nil {
		return dto.ModuleActivationResponse{}, err
	}

	now := s.clock()
	record, stored, err := s.manager.Resolve(ctx, module.ModuleID, now)
	if err != nil {
		return dto.ModuleActivationResponse{}, err
	}

	return dto.NewModuleActivationResponse(record, moduleMeta(module), stored, now), nil
}

// Access reports whether students may open a catalog module right now. A
// stored record without a catalog entry is treated as missing, as in Get.
func (s *moduleActivationService) Access(ctx context.Context, moduleID string) (dto.ModuleAccessResponse, error) {
	module, err := s.module(ctx, moduleID)
	if err != nil {
		return dto.ModuleAccessResponse{}, err
	}

	now := s.clock()
	record, _, err := s.manager.Resolve(ctx, module.ModuleID, now)
	if err != nil {
		return dto.ModuleAccessResponse{}, err
	}

	return dto.ModuleAccessResponse{
		ModuleID:   module.ModuleID,
		Accessible: activation.IsCurrentlyActive(&record, now),
		Status:     dto.NewActivationStatusResponse(activation.ClassifyStatus(&record, now)),
	}, nil
}

func (s *moduleActivationService) Activate(ctx context.Context, actor ActivityActor, moduleID string, req dto.ActivationChangeRequest) (dto.ModuleActivationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ModuleActivationResponse{}, err
	}
	reason := s.sanitize(req.Reason)

	return s.transition(ctx, actor, moduleID, TransitionActivate, map[string]interface{}{"reason": reason},
		func(ctx context.Context, now time.Time) (activation.Record, error) {
			return s.manager.Activate(ctx, moduleID, actor.ID, reason, now)
		})
}

func (s *moduleActivationService) Deactivate(ctx context.Context, actor ActivityActor, moduleID string, req dto.ActivationChangeRequest) (dto.ModuleActivationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ModuleActivationResponse{}, err
	}
	reason := s.sanitize(req.Reason)

	return s.transition(ctx, actor, moduleID, TransitionDeactivate, map[string]interface{}{"reason": reason},
		func(ctx context.Context, now time.Time) (activation.Record, error) {
			return s.manager.Deactivate(ctx, moduleID, actor.ID, reason, now)
		})
}

func (s *moduleActivationService) ScheduleActivation(ctx context.Context, actor ActivityActor, moduleID string, req dto.ActivationScheduleRequest) (dto.ModuleActivationResponse, error) {
	if err := s.validateSchedule(req); err != nil {
		return dto.ModuleActivationResponse{}, err
	}
	reason := s.sanitize(req.Reason)
	when := req.When.UTC()

	metadata := map[string]interface{}{"reason": reason, "when": when.Format(time.RFC3339)}
	return s.transition(ctx, actor, moduleID, TransitionScheduleActivation, metadata,
		func(ctx context.Context, now time.Time) (activation.Record, error) {
			return s.manager.ScheduleActivation(ctx, moduleID, when, actor.ID, reason, now)
		})
}

func (s *moduleActivationService) ScheduleDeactivation(ctx context.Context, actor ActivityActor, moduleID string, req dto.ActivationScheduleRequest) (dto.ModuleActivationResponse, error) {
	if err := s.validateSchedule(req); err != nil {
		return dto.ModuleActivationResponse{}, err
	}
	reason := s.sanitize(req.Reason)
	when := req.When.UTC()

	metadata := map[string]interface{}{"reason": reason, "when": when.Format(time.RFC3339)}
	return s.transition(ctx, actor, moduleID, TransitionScheduleDeactivation, metadata,
		func(ctx context.Context, now time.Time) (activation.Record, error) {
			return s.manager.ScheduleDeactivation(ctx, moduleID, when, actor.ID, reason, now)
		})
}

func (s *moduleActivationService) Deprecate(ctx context.Context, actor ActivityActor, moduleID string) (dto.ModuleActivationResponse, error) {
	return s.transition(ctx, actor, moduleID, TransitionDeprecate, nil,
		func(ctx context.Context, now time.Time) (activation.Record, error) {
			return s.manager.MarkDeprecated(ctx, moduleID, now)
		})
}

func (s *moduleActivationService) transition(
	ctx context.Context,
	actor ActivityActor,
	moduleID string,
	name string,
	metadata map[string]interface{},
	apply func(context.Context, time.Time) (activation.Record, error),
) (dto.ModuleActivationResponse, error) {
	attrs := []attribute.KeyValue{
		attribute.String("module.id", moduleID),
		attribute.String("module.transition", name),
		attribute.String("actor.id", actor.ID),
	}
	spanCtx, span := s.tracer.Start(ctx, "module_activation."+name, trace.WithAttributes(attrs...))
	defer span.End()

	module, err := s.module(spanCtx, moduleID)
	if err != nil {
		s.fail(span, name, err)
		return dto.ModuleActivationResponse{}, err
	}

	now := s.clock()
	record, err := apply(spanCtx, now)
	if err != nil {
		s.fail(span, name, err)
		return dto.ModuleActivationResponse{}, err
	}
	observability.CountTransition(name, "success")

	s.logger.Info().
		Str("module_id", record.ModuleID).
		Str("course_id", record.CourseID).
		Str("transition", name).
		Str("actor", actor.ID).
		Msg("module activation changed")

	response := dto.NewModuleActivationResponse(record, moduleMeta(module), true, now)

	s.invalidateCache(spanCtx, record.CourseID)
	s.recordActivity(spanCtx, actor, name, record, metadata)
	if s.events != nil {
		s.events.Publish(spanCtx, dto.ActivationEvent{
			Transition: name,
			ModuleID:   record.ModuleID,
			CourseID:   record.CourseID,
			Actor:      actorLabel(actor),
			Module:     response,
			OccurredAt: now.UTC(),
		})
	}

	return response, nil
}

func (s *moduleActivationService) fail(span trace.Span, name string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	observability.CountTransition(name, transitionOutcome(err))
	s.logger.Debug().Err(err).Str("transition", name).Msg("module activation transition rejected")
}

func (s *moduleActivationService) recordActivity(ctx context.Context, actor ActivityActor, name string, record activation.Record, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}

	payload := map[string]interface{}{
		"course_id": record.CourseID,
		"is_active": record.IsActive,
	}
	for key, value := range metadata {
		if text, ok := value.(string); ok && text == "" {
			continue
		}
		payload[key] = value
	}

	_, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     transitionActions[name],
		EntityType: "module",
		EntityID:   record.ModuleID,
		Metadata:   payload,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("module_id", record.ModuleID).Msg("failed to record module activation activity")
	}
}

func (s *moduleActivationService) module(ctx context.Context, moduleID string) (models.Module, error) {
	moduleID = strings.TrimSpace(moduleID)
	if moduleID == "" {
		return models.Module{}, activation.ErrNotFound
	}

	module, err := s.catalog.GetByModuleID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Module{}, activation.ErrNotFound
		}
		return models.Module{}, fmt.Errorf("%w: %w", activation.ErrStoreUnavailable, err)
	}
	return module, nil
}

func (s *moduleActivationService) validateSchedule(req dto.ActivationScheduleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if req.When.IsZero() {
		return fmt.Errorf("%w: a schedule time is required", activation.ErrInvalidSchedule)
	}
	return nil
}

func (s *moduleActivationService) sanitize(reason string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(reason))
}

func (s *moduleActivationService) clock() time.Time {
	return s.now().In(s.location)
}

func (s *moduleActivationService) fetchCache(ctx context.Context, courseID string) (courseSnapshot, bool) {
	if s.cache == nil {
		return courseSnapshot{}, false
	}
	payload, err := s.cache.Get(ctx, activationCacheKey(courseID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read module activation cache")
		}
		return courseSnapshot{}, false
	}

	var snapshot courseSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode module activation cache")
		return courseSnapshot{}, false
	}
	return snapshot, true
}

func (s *moduleActivationService) writeCache(ctx context.Context, courseID string, snapshot courseSnapshot) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode module activation cache")
		return
	}
	if err := s.cache.Set(ctx, activationCacheKey(courseID), payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store module activation cache")
	}
}

func (s *moduleActivationService) invalidateCache(ctx context.Context, courseID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, activationCacheKey(courseID), activationCacheKey("")).Err(); err != nil {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("failed to invalidate module activation cache")
	}
}

func activationCacheKey(courseID string) string {
	if courseID == "" {
		courseID = allCourses
	}
	return activationCachePrefix + courseID
}

func moduleMeta(module models.Module) dto.ModuleMeta {
	return dto.ModuleMeta{
		Title:    module.Title,
		Sequence: module.Sequence,
		IsFirst:  module.IsFirst,
	}
}

func actorLabel(actor ActivityActor) string {
	if strings.TrimSpace(actor.ID) == "" {
		return activation.SystemActor
	}
	return actor.ID
}

func transitionOutcome(err error) string {
	switch {
	case errors.Is(err, activation.ErrNotFound):
		return "not_found"
	case errors.Is(err, activation.ErrInvalidSchedule):
		return "invalid_schedule"
	case errors.Is(err, activation.ErrDeprecated):
		return "deprecated"
	case errors.Is(err, activation.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

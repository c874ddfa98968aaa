package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-curriculum-api/internal/models"
)

// ActivityLogFilter narrows audit trail queries. Zero values match everything;
// Since and Until bound CreatedAt inclusively.
type ActivityLogFilter struct {
	Page          int
	PageSize      int
	ActorID       string
	Action        string
	EntityType    string
	EntityID      string
	CorrelationID string
	Since         *time.Time
	Until         *time.Time
}

// ActivityLogRepository persists the audit trail.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Scopes(filter.matching)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	err := base.
		Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (f ActivityLogFilter) matching(db *gorm.DB) *gorm.DB {
	equals := []struct {
		column string
		value  string
	}{
		{"actor_id", f.ActorID},
		{"action", f.Action},
		{"entity_type", f.EntityType},
		{"entity_id", f.EntityID},
		{"correlation_id", f.CorrelationID},
	}
	for _, cond := range equals {
		if cond.value != "" {
			db = db.Where(cond.column+" = ?", cond.value)
		}
	}
	if f.Since != nil {
		db = db.Where("created_at >= ?", f.Since.UTC())
	}
	if f.Until != nil {
		db = db.Where("created_at <= ?", f.Until.UTC())
	}
	return db
}

// paginate limits a query to one page. A non-positive size disables paging.
func paginate(page, size int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if size <= 0 {
			return db
		}
		if page <= 0 {
			page = 1
		}
		return db.Offset((page - 1) * size).Limit(size)
	}
}

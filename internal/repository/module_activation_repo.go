package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/models"
)

// ModuleActivationRepository persists activation records and satisfies activation.Store.
type ModuleActivationRepository interface {
	activation.Store
}

type moduleActivationRepository struct {
	db *gorm.DB
}

// NewModuleActivationRepository constructs the activation repository.
func NewModuleActivationRepository(db *gorm.DB) ModuleActivationRepository {
	return &moduleActivationRepository{db: db}
}

func (r *moduleActivationRepository) Get(ctx context.Context, moduleID string) (activation.Record, bool, error) {
	var row models.ModuleActivation
	err := r.db.WithContext(ctx).Where("module_id = ?", moduleID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return activation.Record{}, false, nil
		}
		return activation.Record{}, false, err
	}
	return toActivationRecord(row), true, nil
}

func (r *moduleActivationRepository) GetAll(ctx context.Context) ([]activation.Record, error) {
	var rows []models.ModuleActivation
	if err := r.db.WithContext(ctx).Order("course_id ASC, module_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toActivationRecords(rows), nil
}

func (r *moduleActivationRepository) GetByCourse(ctx context.Context, courseID string) ([]activation.Record, error) {
	var rows []models.ModuleActivation
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("module_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toActivationRecords(rows), nil
}

func (r *moduleActivationRepository) Create(ctx context.Context, moduleID string, record activation.Record) error {
	row := fromActivationRecord(moduleID, record)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ModuleActivation{}).Where("module_id = ?", moduleID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return activation.ErrAlreadyExists
		}
		return tx.Create(&row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return activation.ErrAlreadyExists
	}
	return err
}

func (r *moduleActivationRepository) Update(ctx context.Context, moduleID string, patch activation.Patch) error {
	result := r.db.WithContext(ctx).
		Model(&models.ModuleActivation{}).
		Where("module_id = ?", moduleID).
		Updates(patchColumns(patch))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// patchColumns maps a patch onto column updates. Omitted fields are not touched.
func patchColumns(patch activation.Patch) map[string]interface{} {
	updates := make(map[string]interface{})

	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.Deprecated != nil {
		updates["deprecated"] = *patch.Deprecated
	}
	if patch.ActivatedBy != nil {
		updates["activated_by"] = *patch.ActivatedBy
	}
	if patch.ActivatedAt != nil {
		updates["activated_at"] = patch.ActivatedAt.UTC()
	}
	if patch.DeactivatedBy != nil {
		updates["deactivated_by"] = *patch.DeactivatedBy
	}
	if patch.DeactivatedAt != nil {
		updates["deactivated_at"] = patch.DeactivatedAt.UTC()
	}
	if patch.Reason != nil {
		updates["reason"] = *patch.Reason
	}
	if patch.ScheduledActivation != nil {
		updates["scheduled_activation"] = patch.ScheduledActivation.UTC()
	}
	if patch.ScheduledDeactivation != nil {
		updates["scheduled_deactivation"] = patch.ScheduledDeactivation.UTC()
	}
	if patch.ClearDeactivation {
		updates["deactivated_by"] = nil
		updates["deactivated_at"] = nil
	}
	if patch.ClearScheduledActivation {
		updates["scheduled_activation"] = nil
	}
	if patch.ClearScheduledDeactivation {
		updates["scheduled_deactivation"] = nil
	}
	if !patch.UpdatedAt.IsZero() {
		updates["updated_at"] = patch.UpdatedAt.UTC()
	}

	return updates
}

func toActivationRecords(rows []models.ModuleActivation) []activation.Record {
	records := make([]activation.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toActivationRecord(row))
	}
	return records
}

// toActivationRecord normalizes a stored row into the canonical record, with
// every instant in UTC.
func toActivationRecord(row models.ModuleActivation) activation.Record {
	return activation.Record{
		ModuleID:              row.ModuleID,
		CourseID:              row.CourseID,
		IsActive:              row.IsActive,
		ActivatedBy:           row.ActivatedBy,
		ActivatedAt:           utcPtr(row.ActivatedAt),
		DeactivatedBy:         row.DeactivatedBy,
		DeactivatedAt:         utcPtr(row.DeactivatedAt),
		Reason:                row.Reason,
		ScheduledActivation:   utcPtr(row.ScheduledActivation),
		ScheduledDeactivation: utcPtr(row.ScheduledDeactivation),
		CreatedAt:             row.CreatedAt.UTC(),
		UpdatedAt:             row.UpdatedAt.UTC(),
		Deprecated:            row.Deprecated,
	}
}

func fromActivationRecord(moduleID string, record activation.Record) models.ModuleActivation {
	return models.ModuleActivation{
		ModuleID:              moduleID,
		CourseID:              record.CourseID,
		IsActive:              record.IsActive,
		ActivatedBy:           record.ActivatedBy,
		ActivatedAt:           utcPtr(record.ActivatedAt),
		DeactivatedBy:         record.DeactivatedBy,
		DeactivatedAt:         utcPtr(record.DeactivatedAt),
		Reason:                record.Reason,
		ScheduledActivation:   utcPtr(record.ScheduledActivation),
		ScheduledDeactivation: utcPtr(record.ScheduledDeactivation),
		Deprecated:            record.Deprecated,
		CreatedAt:             record.CreatedAt.UTC(),
		UpdatedAt:             record.UpdatedAt.UTC(),
	}
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}

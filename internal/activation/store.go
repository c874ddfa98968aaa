package activation

import (
	"context"
	"fmt"
	"time"
)

// Store persists activation records keyed by module identifier.
// Implementations normalize every stored instant to time.Time before returning it.
type Store interface {
	Get(ctx context.Context, moduleID string) (Record, bool, error)
	GetAll(ctx context.Context) ([]Record, error)
	GetByCourse(ctx context.Context, courseID string) ([]Record, error)
	Create(ctx context.Context, moduleID string, record Record) error
	Update(ctx context.Context, moduleID string, patch Patch) error
}

// Catalog resolves static module metadata.
type Catalog interface {
	Lookup(ctx context.Context, moduleID string) (CatalogEntry, bool, error)
}

// Patch lists the fields written by one transition. Nil fields are left untouched;
// the Clear flags null the corresponding fields.
type Patch struct {
	IsActive              *bool
	Deprecated            *bool
	ActivatedBy           *string
	ActivatedAt           *time.Time
	DeactivatedBy         *string
	DeactivatedAt         *time.Time
	Reason                *string
	ScheduledActivation   *time.Time
	ScheduledDeactivation *time.Time

	ClearDeactivation          bool
	ClearScheduledActivation   bool
	ClearScheduledDeactivation bool

	UpdatedAt time.Time
}

// Apply returns record with the patch applied.
func (p Patch) Apply(record Record) Record {
	if p.IsActive != nil {
		record.IsActive = *p.IsActive
	}
	if p.Deprecated != nil {
		record.Deprecated = *p.Deprecated
	}
	if p.ActivatedBy != nil {
		record.ActivatedBy = cloneString(p.ActivatedBy)
	}
	if p.ActivatedAt != nil {
		record.ActivatedAt = cloneTime(p.ActivatedAt)
	}
	if p.DeactivatedBy != nil {
		record.DeactivatedBy = cloneString(p.DeactivatedBy)
	}
	if p.DeactivatedAt != nil {
		record.DeactivatedAt = cloneTime(p.DeactivatedAt)
	}
	if p.Reason != nil {
		record.Reason = *p.Reason
	}
	if p.ScheduledActivation != nil {
		record.ScheduledActivation = cloneTime(p.ScheduledActivation)
	}
	if p.ScheduledDeactivation != nil {
		record.ScheduledDeactivation = cloneTime(p.ScheduledDeactivation)
	}
	if p.ClearDeactivation {
		record.DeactivatedBy = nil
		record.DeactivatedAt = nil
	}
	if p.ClearScheduledActivation {
		record.ScheduledActivation = nil
	}
	if p.ClearScheduledDeactivation {
		record.ScheduledDeactivation = nil
	}
	if !p.UpdatedAt.IsZero() {
		record.UpdatedAt = p.UpdatedAt
	}
	return record
}

// validate rejects patches that would merge an activation with a deactivation
// or set and clear the same field.
func (p Patch) validate() error {
	activating := p.ActivatedAt != nil || p.ActivatedBy != nil
	deactivating := p.DeactivatedAt != nil || p.DeactivatedBy != nil

	switch {
	case activating && deactivating:
		return fmt.Errorf("%w: activation and deactivation in one write", errConflictingPatch)
	case p.IsActive != nil && *p.IsActive && deactivating:
		return fmt.Errorf("%w: active record cannot carry a deactivation", errConflictingPatch)
	case p.IsActive != nil && !*p.IsActive && activating:
		return fmt.Errorf("%w: inactive record cannot carry an activation", errConflictingPatch)
	case p.ClearDeactivation && deactivating:
		return fmt.Errorf("%w: deactivation both set and cleared", errConflictingPatch)
	case p.ClearScheduledActivation && p.ScheduledActivation != nil:
		return fmt.Errorf("%w: scheduled activation both set and cleared", errConflictingPatch)
	case p.ClearScheduledDeactivation && p.ScheduledDeactivation != nil:
		return fmt.Errorf("%w: scheduled deactivation both set and cleared", errConflictingPatch)
	}
	return nil
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

package activation

import (
	"context"
	"strings"
	"time"
)

// Manager applies lifecycle transitions to activation records.
//
// Each transition is one read-modify-write against the Store. Validation runs
// before anything is written, and concurrent writers resolve as last write wins.
type Manager struct {
	store   Store
	catalog Catalog
}

// NewManager constructs a lifecycle manager.
func NewManager(store Store, catalog Catalog) *Manager {
	return &Manager{store: store, catalog: catalog}
}

// Resolve returns the stored record for moduleID, or the catalog default when
// nothing has been written yet. stored reports which one was returned.
func (m *Manager) Resolve(ctx context.Context, moduleID string, now time.Time) (Record, bool, error) {
	record, found, err := m.store.Get(ctx, moduleID)
	if err != nil {
		return Record{}, false, storeError(err)
	}
	if found {
		return record, true, nil
	}

	entry, err := m.lookup(ctx, moduleID)
	if err != nil {
		return Record{}, false, err
	}
	return Default(entry, now), false, nil
}

// ProvisionDefault creates the default record for a module.
func (m *Manager) ProvisionDefault(ctx context.Context, moduleID, courseID string, isFirst bool, now time.Time) (Record, error) {
	_, found, err := m.store.Get(ctx, moduleID)
	if err != nil {
		return Record{}, storeError(err)
	}
	if found {
		return Record{}, ErrAlreadyExists
	}

	record := Default(CatalogEntry{ModuleID: moduleID, CourseID: courseID, IsFirst: isFirst}, now)
	if err := m.store.Create(ctx, moduleID, record); err != nil {
		return Record{}, storeError(err)
	}
	return record, nil
}

// Activate turns the module on. A pending scheduled activation is superseded;
// a scheduled deactivation is kept.
func (m *Manager) Activate(ctx context.Context, moduleID, actor, reason string, now time.Time) (Record, error) {
	return m.transition(ctx, moduleID, now, func(current Record) (Patch, error) {
		if current.Deprecated {
			return Patch{}, ErrDeprecated
		}
		by := actorOrSystem(actor)
		at := now
		return Patch{
			IsActive:                 boolPtr(true),
			ActivatedBy:              &by,
			ActivatedAt:              &at,
			Reason:                   reasonOr(reason, "Activated manually"),
			ClearDeactivation:        true,
			ClearScheduledActivation: true,
		}, nil
	})
}

// Deactivate turns the module off and drops any scheduled deactivation.
func (m *Manager) Deactivate(ctx context.Context, moduleID, actor, reason string, now time.Time) (Record, error) {
	return m.transition(ctx, moduleID, now, func(current Record) (Patch, error) {
		by := actorOrSystem(actor)
		at := now
		return Patch{
			IsActive:                   boolPtr(false),
			DeactivatedBy:              &by,
			DeactivatedAt:              &at,
			Reason:                     reasonOr(reason, "Deactivated manually"),
			ClearScheduledDeactivation: true,
		}, nil
	})
}

// ScheduleActivation sets the instant from which the module becomes reachable.
// isActive is not changed.
func (m *Manager) ScheduleActivation(ctx context.Context, moduleID string, when time.Time, actor, reason string, now time.Time) (Record, error) {
	if !when.After(now) {
		return Record{}, ErrInvalidSchedule
	}
	return m.transition(ctx, moduleID, now, func(current Record) (Patch, error) {
		if current.Deprecated {
			return Patch{}, ErrDeprecated
		}
		at := when
		return Patch{
			ScheduledActivation: &at,
			Reason:              reasonOr(reason, "Activation scheduled by "+actorOrSystem(actor)),
		}, nil
	})
}

// ScheduleDeactivation sets the instant from which the module becomes unreachable.
func (m *Manager) ScheduleDeactivation(ctx context.Context, moduleID string, when time.Time, actor, reason string, now time.Time) (Record, error) {
	if !when.After(now) {
		return Record{}, ErrInvalidSchedule
	}
	return m.transition(ctx, moduleID, now, func(current Record) (Patch, error) {
		if current.Deprecated {
			return Patch{}, ErrDeprecated
		}
		at := when
		return Patch{
			ScheduledDeactivation: &at,
			Reason:                reasonOr(reason, "Deactivation scheduled by "+actorOrSystem(actor)),
		}, nil
	})
}

// MarkDeprecated removes the module from the curriculum. Calling it on an
// already deprecated module writes nothing.
func (m *Manager) MarkDeprecated(ctx context.Context, moduleID string, now time.Time) (Record, error) {
	current, stored, err := m.Resolve(ctx, moduleID, now)
	if err != nil {
		return Record{}, err
	}
	if stored && current.Deprecated && !current.IsActive {
		return current, nil
	}

	by := SystemActor
	at := now
	reason := "Module deprecated"
	return m.write(ctx, moduleID, current, stored, Patch{
		IsActive:      boolPtr(false),
		Deprecated:    boolPtr(true),
		DeactivatedBy: &by,
		DeactivatedAt: &at,
		Reason:        &reason,
		UpdatedAt:     now,
	})
}

func (m *Manager) transition(ctx context.Context, moduleID string, now time.Time, build func(Record) (Patch, error)) (Record, error) {
	current, stored, err := m.Resolve(ctx, moduleID, now)
	if err != nil {
		return Record{}, err
	}

	patch, err := build(current)
	if err != nil {
		return Record{}, err
	}
	patch.UpdatedAt = now

	return m.write(ctx, moduleID, current, stored, patch)
}

// write persists patch. Uninitialized modules are created in the same write.
func (m *Manager) write(ctx context.Context, moduleID string, current Record, stored bool, patch Patch) (Record, error) {
	if err := patch.validate(); err != nil {
		return Record{}, err
	}

	next := patch.Apply(current)
	if !stored {
		if err := m.store.Create(ctx, moduleID, next); err != nil {
			return Record{}, storeError(err)
		}
		return next, nil
	}

	if err := m.store.Update(ctx, moduleID, patch); err != nil {
		return Record{}, storeError(err)
	}
	return next, nil
}

func (m *Manager) lookup(ctx context.Context, moduleID string) (CatalogEntry, error) {
	if m.catalog == nil {
		return CatalogEntry{}, ErrNotFound
	}
	entry, found, err := m.catalog.Lookup(ctx, moduleID)
	if err != nil {
		return CatalogEntry{}, storeError(err)
	}
	if !found {
		return CatalogEntry{}, ErrNotFound
	}
	return entry, nil
}

func actorOrSystem(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return SystemActor
	}
	return actor
}

func reasonOr(reason, fallback string) *string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = fallback
	}
	return &reason
}

func boolPtr(v bool) *bool {
	return &v
}

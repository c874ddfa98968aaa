package activation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCatalog() staticCatalog {
	return staticCatalog{
		"intro":    {ModuleID: "intro", CourseID: "web", Title: "Intro", IsFirst: true},
		"html":     {ModuleID: "html", CourseID: "web", Title: "HTML"},
		"css":      {ModuleID: "css", CourseID: "web", Title: "CSS"},
		"advanced": {ModuleID: "advanced", CourseID: "web", Title: "Advanced"},
	}
}

func storedRecord(moduleID string, active bool) Record {
	return Record{
		ModuleID:  moduleID,
		CourseID:  "web",
		IsActive:  active,
		Reason:    "seed",
		CreatedAt: baseTime.Add(-48 * time.Hour),
		UpdatedAt: baseTime.Add(-48 * time.Hour),
	}
}

func TestResolveSynthesizesDefaultWithoutWriting(t *testing.T) {
	store := newMemoryStore()
	manager := NewManager(store, testCatalog())

	intro, stored, err := manager.Resolve(context.Background(), "intro", baseTime)
	require.NoError(t, err)
	require.False(t, stored)
	require.True(t, intro.IsActive)
	require.Equal(t, SystemActor, *intro.ActivatedBy)

	html, stored, err := manager.Resolve(context.Background(), "html", baseTime)
	require.NoError(t, err)
	require.False(t, stored)
	require.False(t, html.IsActive)
	require.Nil(t, html.ActivatedAt)

	require.Zero(t, store.writes)

	_, _, err = manager.Resolve(context.Background(), "missing", baseTime)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProvisionDefault(t *testing.T) {
	store := newMemoryStore()
	manager := NewManager(store, nil)

	record, err := manager.ProvisionDefault(context.Background(), "intro", "web", true, baseTime)
	require.NoError(t, err)
	require.True(t, record.IsActive)
	require.Equal(t, baseTime, record.CreatedAt)
	require.Equal(t, baseTime, record.UpdatedAt)
	require.Equal(t, "Entry module, available by default", record.Reason)

	other, err := manager.ProvisionDefault(context.Background(), "html", "web", false, baseTime)
	require.NoError(t, err)
	require.False(t, other.IsActive)
	require.Equal(t, "Awaiting activation by an administrator", other.Reason)

	_, err = manager.ProvisionDefault(context.Background(), "intro", "web", true, baseTime)
	require.ErrorIs(t, err, ErrAlreadyExists)
	require.Equal(t, 2, store.writes)
}

func TestActivateClearsDeactivationAndPendingActivation(t *testing.T) {
	record := storedRecord("html", false)
	by := "admin-1"
	record.DeactivatedBy = &by
	record.DeactivatedAt = timePtr(baseTime.Add(-time.Hour))
	record.ScheduledActivation = timePtr(baseTime.Add(24 * time.Hour))
	record.ScheduledDeactivation = timePtr(baseTime.Add(10 * 24 * time.Hour))

	store := newMemoryStore(record)
	manager := NewManager(store, testCatalog())

	updated, err := manager.Activate(context.Background(), "html", "admin-2", "ready", baseTime)
	require.NoError(t, err)
	require.True(t, updated.IsActive)
	require.Equal(t, "admin-2", *updated.ActivatedBy)
	require.Equal(t, baseTime, *updated.ActivatedAt)
	require.Nil(t, updated.DeactivatedBy)
	require.Nil(t, updated.DeactivatedAt)
	require.Nil(t, updated.ScheduledActivation)
	require.NotNil(t, updated.ScheduledDeactivation, "activation keeps the close date")
	require.Equal(t, "ready", updated.Reason)
	require.Equal(t, baseTime, updated.UpdatedAt)

	persisted := store.records["html"]
	require.Equal(t, updated, persisted)
}

func TestDeactivateClearsScheduledDeactivationOnly(t *testing.T) {
	record := storedRecord("css", true)
	record.ScheduledActivation = timePtr(baseTime.Add(24 * time.Hour))
	record.ScheduledDeactivation = timePtr(baseTime.Add(10 * 24 * time.Hour))

	store := newMemoryStore(record)
	manager := NewManager(store, testCatalog())

	updated, err := manager.Deactivate(context.Background(), "css", "admin-1", "", baseTime)
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, "admin-1", *updated.DeactivatedBy)
	require.Equal(t, baseTime, *updated.DeactivatedAt)
	require.Nil(t, updated.ScheduledDeactivation)
	require.NotNil(t, updated.ScheduledActivation, "deactivation keeps the open date")
	require.Equal(t, "Deactivated manually", updated.Reason)
	require.False(t, IsCurrentlyActive(&updated, baseTime))
}

func TestTransitionOnUninitializedModuleCreatesRecord(t *testing.T) {
	store := newMemoryStore()
	manager := NewManager(store, testCatalog())

	updated, err := manager.Activate(context.Background(), "css", "admin-1", "", baseTime)
	require.NoError(t, err)
	require.True(t, updated.IsActive)
	require.Equal(t, "web", updated.CourseID)
	require.Equal(t, baseTime, updated.CreatedAt)
	require.Equal(t, 1, store.writes)
	require.Equal(t, updated, store.records["css"])

	_, err = manager.Activate(context.Background(), "unknown", "admin-1", "", baseTime)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleActivationRejectsPastAndPresent(t *testing.T) {
	record := storedRecord("html", true)
	store := newMemoryStore(record)
	manager := NewManager(store, testCatalog())

	for _, when := range []time.Time{baseTime.Add(-time.Minute), baseTime} {
		_, err := manager.ScheduleActivation(context.Background(), "html", when, "admin", "", baseTime)
		require.ErrorIs(t, err, ErrInvalidSchedule)

		_, err = manager.ScheduleDeactivation(context.Background(), "html", when, "admin", "", baseTime)
		require.ErrorIs(t, err, ErrInvalidSchedule)
	}

	require.Equal(t, record, store.records["html"])
	require.Zero(t, store.writes)
}

func TestScheduleFieldsAreIndependent(t *testing.T) {
	store := newMemoryStore(storedRecord("html", true))
	manager := NewManager(store, testCatalog())

	opens := baseTime.Add(7 * 24 * time.Hour)
	closes := baseTime.Add(37 * 24 * time.Hour)

	_, err := manager.ScheduleActivation(context.Background(), "html", opens, "admin", "", baseTime)
	require.NoError(t, err)
	updated, err := manager.ScheduleDeactivation(context.Background(), "html", closes, "admin", "term ends", baseTime)
	require.NoError(t, err)

	require.True(t, updated.IsActive)
	require.Equal(t, opens, *updated.ScheduledActivation)
	require.Equal(t, closes, *updated.ScheduledDeactivation)
	require.Equal(t, "term ends", updated.Reason)

	require.Equal(t, StatusScheduled, ClassifyStatus(&updated, baseTime).Status)
	require.Equal(t, StatusActive, ClassifyStatus(&updated, opens).Status)
	require.Equal(t, StatusExpired, ClassifyStatus(&updated, closes).Status)
}

func TestScheduleActivationDoesNotChangeIsActive(t *testing.T) {
	store := newMemoryStore(storedRecord("html", false))
	manager := NewManager(store, testCatalog())

	updated, err := manager.ScheduleActivation(context.Background(), "html", baseTime.Add(time.Hour), "admin", "", baseTime)
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, "Activation scheduled by admin", updated.Reason)
}

func TestMarkDeprecatedIsIdempotentAndBlocksReactivation(t *testing.T) {
	store := newMemoryStore(storedRecord("advanced", true))
	manager := NewManager(store, testCatalog())

	deprecated, err := manager.MarkDeprecated(context.Background(), "advanced", baseTime)
	require.NoError(t, err)
	require.False(t, deprecated.IsActive)
	require.True(t, deprecated.Deprecated)
	require.Equal(t, SystemActor, *deprecated.DeactivatedBy)
	require.Equal(t, baseTime, *deprecated.DeactivatedAt)
	require.Equal(t, 1, store.writes)

	again, err := manager.MarkDeprecated(context.Background(), "advanced", baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, deprecated, again)
	require.Equal(t, 1, store.writes)

	_, err = manager.Activate(context.Background(), "advanced", "admin", "", baseTime)
	require.ErrorIs(t, err, ErrDeprecated)
	_, err = manager.ScheduleActivation(context.Background(), "advanced", baseTime.Add(time.Hour), "admin", "", baseTime)
	require.ErrorIs(t, err, ErrDeprecated)
	_, err = manager.ScheduleDeactivation(context.Background(), "advanced", baseTime.Add(time.Hour), "admin", "", baseTime)
	require.ErrorIs(t, err, ErrDeprecated)

	_, err = manager.Deactivate(context.Background(), "advanced", "admin", "", baseTime)
	require.NoError(t, err)
	require.True(t, store.records["advanced"].Deprecated)
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	store := newMemoryStore(storedRecord("html", false))
	store.failWith = cause
	manager := NewManager(store, testCatalog())

	_, err := manager.Activate(context.Background(), "html", "admin", "", baseTime)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.ErrorIs(t, err, cause)
	require.False(t, store.records["html"].IsActive)

	store.failReads = true
	_, _, err = manager.Resolve(context.Background(), "html", baseTime)
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestPatchValidateRejectsMergedTransitions(t *testing.T) {
	by := "admin"
	at := baseTime

	cases := []Patch{
		{ActivatedAt: &at, DeactivatedAt: &at},
		{IsActive: boolPtr(true), DeactivatedBy: &by},
		{IsActive: boolPtr(false), ActivatedBy: &by},
		{ClearDeactivation: true, DeactivatedAt: &at},
		{ClearScheduledActivation: true, ScheduledActivation: &at},
		{ClearScheduledDeactivation: true, ScheduledDeactivation: &at},
	}

	for _, patch := range cases {
		require.ErrorIs(t, patch.validate(), errConflictingPatch)
	}

	require.NoError(t, Patch{IsActive: boolPtr(true), ActivatedBy: &by, ActivatedAt: &at, ClearDeactivation: true}.validate())
}

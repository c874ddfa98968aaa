// Package activation decides when curriculum modules are reachable by students.
//
// A module's availability is driven by one Record. The evaluator functions in this
// package are pure and take the evaluation instant explicitly; the Manager applies
// the lifecycle transitions and writes them through a Store.
package activation

import "time"

// SystemActor identifies writes that were not triggered by a person.
const SystemActor = "system"

// Record is the activation state of a single module.
type Record struct {
	ModuleID              string
	CourseID              string
	IsActive              bool
	ActivatedBy           *string
	ActivatedAt           *time.Time
	DeactivatedBy         *string
	DeactivatedAt         *time.Time
	Reason                string
	ScheduledActivation   *time.Time
	ScheduledDeactivation *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Deprecated            bool
}

// CatalogEntry is the static description of a module used for defaulting.
type CatalogEntry struct {
	ModuleID string
	CourseID string
	Title    string
	IsFirst  bool
}

// Default synthesizes the record of a module that has never been written.
// Only the curriculum's entry module starts active.
func Default(entry CatalogEntry, now time.Time) Record {
	record := Record{
		ModuleID:  entry.ModuleID,
		CourseID:  entry.CourseID,
		IsActive:  entry.IsFirst,
		Reason:    defaultReason(entry.IsFirst),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if entry.IsFirst {
		actor := SystemActor
		at := now
		record.ActivatedBy = &actor
		record.ActivatedAt = &at
	}
	return record
}

func defaultReason(isFirst bool) string {
	if isFirst {
		return "Entry module, available by default"
	}
	return "Awaiting activation by an administrator"
}

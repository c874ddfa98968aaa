package activation

import (
	"context"
	"errors"
	"time"
)

// ProvisionSummary reports the outcome of a batch provisioning run.
type ProvisionSummary struct {
	Created []string
	Skipped []string
}

// ProvisionCatalog seeds the default record of every catalog module that has no
// record yet. Existing records are left untouched, so the run can be repeated.
func ProvisionCatalog(ctx context.Context, entries []CatalogEntry, store Store, now time.Time) (ProvisionSummary, error) {
	manager := NewManager(store, nil)
	summary := ProvisionSummary{
		Created: make([]string, 0, len(entries)),
		Skipped: make([]string, 0),
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		_, err := manager.ProvisionDefault(ctx, entry.ModuleID, entry.CourseID, entry.IsFirst, now)
		switch {
		case err == nil:
			summary.Created = append(summary.Created, entry.ModuleID)
		case errors.Is(err, ErrAlreadyExists):
			summary.Skipped = append(summary.Skipped, entry.ModuleID)
		default:
			return summary, err
		}
	}

	return summary, nil
}

package activation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the module has no record and is not in the catalog.
	ErrNotFound = errors.New("module not found")
	// ErrAlreadyExists indicates a record was already provisioned for the module.
	ErrAlreadyExists = errors.New("activation record already exists")
	// ErrInvalidSchedule indicates a schedule timestamp that is not strictly in the future.
	ErrInvalidSchedule = errors.New("schedule must be in the future")
	// ErrStoreUnavailable wraps any failure reported by the backing store.
	ErrStoreUnavailable = errors.New("activation store unavailable")
	// ErrDeprecated indicates an attempt to reopen a module removed from the curriculum.
	ErrDeprecated = errors.New("module is deprecated")

	errConflictingPatch = errors.New("conflicting activation patch")
)

func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

package activation

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// memoryStore is an in-memory Store used by the package tests.
type memoryStore struct {
	mu        sync.Mutex
	records   map[string]Record
	writes    int
	failWith  error
	failReads bool
}

func newMemoryStore(records ...Record) *memoryStore {
	store := &memoryStore{records: make(map[string]Record)}
	for _, record := range records {
		store.records[record.ModuleID] = record
	}
	return store
}

func (s *memoryStore) Get(_ context.Context, moduleID string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads && s.failWith != nil {
		return Record{}, false, s.failWith
	}
	record, ok := s.records[moduleID]
	return record, ok, nil
}

func (s *memoryStore) GetAll(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ModuleID < result[j].ModuleID })
	return result, nil
}

func (s *memoryStore) GetByCourse(ctx context.Context, courseID string) ([]Record, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Record, 0, len(all))
	for _, record := range all {
		if record.CourseID == courseID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (s *memoryStore) Create(_ context.Context, moduleID string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, exists := s.records[moduleID]; exists {
		return ErrAlreadyExists
	}
	record.ModuleID = moduleID
	s.records[moduleID] = record
	s.writes++
	return nil
}

func (s *memoryStore) Update(_ context.Context, moduleID string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	record, ok := s.records[moduleID]
	if !ok {
		return errors.New("missing document")
	}
	s.records[moduleID] = patch.Apply(record)
	s.writes++
	return nil
}

type staticCatalog map[string]CatalogEntry

func (c staticCatalog) Lookup(_ context.Context, moduleID string) (CatalogEntry, bool, error) {
	entry, ok := c[moduleID]
	return entry, ok, nil
}

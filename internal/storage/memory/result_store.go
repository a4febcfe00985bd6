package memory

import (
	"context"
	"sort"
	"sync"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CalculationResult // keyed by measurement_id
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]*domain.CalculationResult),
	}
}

// Upsert inserts or replaces the result for a measurement.
func (s *ResultStore) Upsert(_ context.Context, r *domain.CalculationResult) error {
	if r == nil || r.MeasurementID == "" || r.SubjectID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[r.MeasurementID] = r.Clone()
	return nil
}

// GetByMeasurementID retrieves the result for a measurement. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByMeasurementID(_ context.Context, measurementID string) (*domain.CalculationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[measurementID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// GetBySubject retrieves all results for a subject, ordered by computed_at ASC.
func (s *ResultStore) GetBySubject(_ context.Context, subjectID string) ([]*domain.CalculationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CalculationResult
	for _, r := range s.data {
		if r.SubjectID == subjectID {
			result = append(result, r.Clone())
		}
	}
	sortResults(result)
	return result, nil
}

// GetAll retrieves all results, ordered by computed_at ASC.
func (s *ResultStore) GetAll(_ context.Context) ([]*domain.CalculationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CalculationResult, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r.Clone())
	}
	sortResults(result)
	return result, nil
}

// DeleteByMeasurementID removes the result for a measurement.
// Returns ErrNotFound if not exists.
func (s *ResultStore) DeleteByMeasurementID(_ context.Context, measurementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[measurementID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, measurementID)
	return nil
}

func sortResults(rs []*domain.CalculationResult) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].ComputedAtMs != rs[j].ComputedAtMs {
			return rs[i].ComputedAtMs < rs[j].ComputedAtMs
		}
		return rs[i].MeasurementID < rs[j].MeasurementID
	})
}

var _ storage.ResultStore = (*ResultStore)(nil)

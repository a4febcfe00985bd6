package memory

import (
	"context"
	"sort"
	"sync"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// MeasurementStore is an in-memory implementation of storage.MeasurementStore.
type MeasurementStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MeasurementInput // keyed by measurement_id

	// results, when set, receives cascading deletes so that removing a
	// measurement also drops its derived result, matching the Postgres
	// foreign key behavior.
	results *ResultStore
}

// NewMeasurementStore creates a new in-memory measurement store.
func NewMeasurementStore() *MeasurementStore {
	return &MeasurementStore{
		data: make(map[string]*domain.MeasurementInput),
	}
}

// WithResultCascade wires a result store for delete cascading.
func (s *MeasurementStore) WithResultCascade(results *ResultStore) *MeasurementStore {
	s.results = results
	return s
}

// Insert adds a new measurement. Returns ErrDuplicateKey if measurement_id exists.
func (s *MeasurementStore) Insert(_ context.Context, m *domain.MeasurementInput) error {
	if m == nil || m.MeasurementID == "" || m.SubjectID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.MeasurementID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[m.MeasurementID] = m.Clone()
	return nil
}

// GetByID retrieves a measurement by its ID. Returns ErrNotFound if not exists.
func (s *MeasurementStore) GetByID(_ context.Context, measurementID string) (*domain.MeasurementInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[measurementID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return m.Clone(), nil
}

// GetBySubject retrieves all measurements for a subject, ordered by taken_at ASC.
func (s *MeasurementStore) GetBySubject(_ context.Context, subjectID string) ([]*domain.MeasurementInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MeasurementInput
	for _, m := range s.data {
		if m.SubjectID == subjectID {
			result = append(result, m.Clone())
		}
	}
	sortMeasurements(result)
	return result, nil
}

// GetAll retrieves all measurements, ordered by taken_at ASC.
func (s *MeasurementStore) GetAll(_ context.Context) ([]*domain.MeasurementInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MeasurementInput, 0, len(s.data))
	for _, m := range s.data {
		result = append(result, m.Clone())
	}
	sortMeasurements(result)
	return result, nil
}

// Update replaces an existing measurement. Returns ErrNotFound if not exists.
func (s *MeasurementStore) Update(_ context.Context, m *domain.MeasurementInput) error {
	if m == nil || m.MeasurementID == "" || m.SubjectID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.MeasurementID]; !exists {
		return storage.ErrNotFound
	}

	s.data[m.MeasurementID] = m.Clone()
	return nil
}

// Delete removes a measurement and cascades to its result.
// Returns ErrNotFound if not exists.
func (s *MeasurementStore) Delete(ctx context.Context, measurementID string) error {
	s.mu.Lock()
	if _, exists := s.data[measurementID]; !exists {
		s.mu.Unlock()
		return storage.ErrNotFound
	}
	delete(s.data, measurementID)
	s.mu.Unlock()

	if s.results != nil {
		// Best effort: the result may legitimately not exist yet.
		_ = s.results.DeleteByMeasurementID(ctx, measurementID)
	}
	return nil
}

func sortMeasurements(ms []*domain.MeasurementInput) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].TakenAtMs != ms[j].TakenAtMs {
			return ms[i].TakenAtMs < ms[j].TakenAtMs
		}
		return ms[i].MeasurementID < ms[j].MeasurementID
	})
}

var _ storage.MeasurementStore = (*MeasurementStore)(nil)

package memory

import (
	"context"
	"sort"
	"sync"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// ResultHistoryStore is an in-memory implementation of storage.ResultHistoryStore.
type ResultHistoryStore struct {
	mu      sync.RWMutex
	entries []*domain.CalculationHistoryEntry
}

// NewResultHistoryStore creates a new in-memory history store.
func NewResultHistoryStore() *ResultHistoryStore {
	return &ResultHistoryStore{}
}

// Append adds history entries. Entries are never updated or deleted.
func (s *ResultHistoryStore) Append(_ context.Context, entries []*domain.CalculationHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e == nil || e.SubjectID == "" || e.MeasurementID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.entries = append(s.entries, e.Clone())
	}
	return nil
}

// GetBySubject retrieves all entries for a subject, ordered by
// taken_at ASC, then computed_at ASC.
func (s *ResultHistoryStore) GetBySubject(_ context.Context, subjectID string) ([]*domain.CalculationHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CalculationHistoryEntry
	for _, e := range s.entries {
		if e.SubjectID == subjectID {
			result = append(result, e.Clone())
		}
	}
	sortHistory(result)
	return result, nil
}

// GetByTimeRange retrieves entries for a subject with taken_at within [start, end] (inclusive).
func (s *ResultHistoryStore) GetByTimeRange(_ context.Context, subjectID string, start, end int64) ([]*domain.CalculationHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CalculationHistoryEntry
	for _, e := range s.entries {
		if e.SubjectID == subjectID && e.TakenAtMs >= start && e.TakenAtMs <= end {
			result = append(result, e.Clone())
		}
	}
	sortHistory(result)
	return result, nil
}

func sortHistory(es []*domain.CalculationHistoryEntry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].TakenAtMs != es[j].TakenAtMs {
			return es[i].TakenAtMs < es[j].TakenAtMs
		}
		return es[i].ComputedAtMs < es[j].ComputedAtMs
	})
}

var _ storage.ResultHistoryStore = (*ResultHistoryStore)(nil)

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// CohortAggregateStore is an in-memory implementation of storage.CohortAggregateStore.
type CohortAggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CohortAggregate // keyed by composite key
}

// NewCohortAggregateStore creates a new in-memory cohort aggregate store.
func NewCohortAggregateStore() *CohortAggregateStore {
	return &CohortAggregateStore{
		data: make(map[string]*domain.CohortAggregate),
	}
}

// aggregateKey generates a unique key for a snapshot.
func aggregateKey(sex domain.Sex, objective domain.Objective, generatedAtMs int64) string {
	return fmt.Sprintf("%s|%s|%d", sex, objective, generatedAtMs)
}

// Insert adds a new aggregate snapshot. Returns ErrDuplicateKey if key exists.
func (s *CohortAggregateStore) Insert(_ context.Context, a *domain.CohortAggregate) error {
	if a == nil || a.Sex == "" || a.Objective == "" {
		return storage.ErrInvalidInput
	}

	key := aggregateKey(a.Sex, a.Objective, a.GeneratedAtMs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = a.Clone()
	return nil
}

// GetLatest retrieves the most recent snapshot for a cohort.
// Returns ErrNotFound if no snapshot exists.
func (s *CohortAggregateStore) GetLatest(_ context.Context, sex domain.Sex, objective domain.Objective) (*domain.CohortAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.CohortAggregate
	for _, a := range s.data {
		if a.Sex != sex || a.Objective != objective {
			continue
		}
		if latest == nil || a.GeneratedAtMs > latest.GeneratedAtMs {
			latest = a
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return latest.Clone(), nil
}

// GetAll retrieves all snapshots, ordered by generated_at ASC.
func (s *CohortAggregateStore) GetAll(_ context.Context) ([]*domain.CohortAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CohortAggregate, 0, len(s.data))
	for _, a := range s.data {
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].GeneratedAtMs != result[j].GeneratedAtMs {
			return result[i].GeneratedAtMs < result[j].GeneratedAtMs
		}
		if result[i].Sex != result[j].Sex {
			return result[i].Sex < result[j].Sex
		}
		return result[i].Objective < result[j].Objective
	})
	return result, nil
}

var _ storage.CohortAggregateStore = (*CohortAggregateStore)(nil)

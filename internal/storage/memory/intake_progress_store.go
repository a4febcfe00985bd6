package memory

import (
	"context"
	"sync"

	"bodycomp-lab/internal/storage"
)

// IntakeProgressStore is an in-memory implementation of storage.IntakeProgressStore.
type IntakeProgressStore struct {
	mu       sync.RWMutex
	progress map[string]*storage.IntakeProgress // keyed by source
	seen     map[string]bool
}

// NewIntakeProgressStore creates a new in-memory intake progress store.
func NewIntakeProgressStore() *IntakeProgressStore {
	return &IntakeProgressStore{
		progress: make(map[string]*storage.IntakeProgress),
		seen:     make(map[string]bool),
	}
}

// GetProgress returns the last processed position for a source.
func (s *IntakeProgressStore) GetProgress(_ context.Context, source string) (*storage.IntakeProgress, error) {
	if source == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.progress[source]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *p
	return &cp, nil
}

// SetProgress saves the last processed position for a source.
func (s *IntakeProgressStore) SetProgress(_ context.Context, progress *storage.IntakeProgress) error {
	if progress == nil || progress.Source == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *progress
	s.progress[progress.Source] = &cp
	return nil
}

// IsSeen checks if a measurement ID has been processed.
func (s *IntakeProgressStore) IsSeen(_ context.Context, measurementID string) (bool, error) {
	if measurementID == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.seen[measurementID], nil
}

// MarkSeen records that a measurement ID has been processed.
func (s *IntakeProgressStore) MarkSeen(_ context.Context, measurementID string) error {
	if measurementID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[measurementID] = true
	return nil
}

// LoadSeen returns all seen measurement IDs.
func (s *IntakeProgressStore) LoadSeen(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ storage.IntakeProgressStore = (*IntakeProgressStore)(nil)

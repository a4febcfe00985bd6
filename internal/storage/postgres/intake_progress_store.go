package postgres

import (
	"context"
	"fmt"

	"bodycomp-lab/internal/storage"
)

// IntakeProgressStore implements storage.IntakeProgressStore using PostgreSQL.
type IntakeProgressStore struct {
	pool *Pool
}

// NewIntakeProgressStore creates a new IntakeProgressStore.
func NewIntakeProgressStore(pool *Pool) *IntakeProgressStore {
	return &IntakeProgressStore{pool: pool}
}

// Compile-time interface check.
var _ storage.IntakeProgressStore = (*IntakeProgressStore)(nil)

// GetProgress returns the last processed position for a source.
func (s *IntakeProgressStore) GetProgress(ctx context.Context, source string) (*storage.IntakeProgress, error) {
	if source == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT source, record_offset, last_measurement_id
		FROM intake_progress
		WHERE source = $1
	`

	var p storage.IntakeProgress
	err := s.pool.QueryRow(ctx, query, source).Scan(&p.Source, &p.RecordOffset, &p.LastMeasurementID)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get intake progress: %w", err)
	}
	return &p, nil
}

// SetProgress saves the last processed position for a source.
func (s *IntakeProgressStore) SetProgress(ctx context.Context, progress *storage.IntakeProgress) error {
	if progress == nil || progress.Source == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO intake_progress (source, record_offset, last_measurement_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (source) DO UPDATE SET
			record_offset = EXCLUDED.record_offset,
			last_measurement_id = EXCLUDED.last_measurement_id
	`

	_, err := s.pool.Exec(ctx, query, progress.Source, progress.RecordOffset, progress.LastMeasurementID)
	if err != nil {
		return fmt.Errorf("set intake progress: %w", err)
	}
	return nil
}

// IsSeen checks if a measurement ID has been processed.
func (s *IntakeProgressStore) IsSeen(ctx context.Context, measurementID string) (bool, error) {
	if measurementID == "" {
		return false, storage.ErrInvalidInput
	}

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM intake_seen WHERE measurement_id = $1`, measurementID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check intake seen: %w", err)
	}
	return count > 0, nil
}

// MarkSeen records that a measurement ID has been processed.
func (s *IntakeProgressStore) MarkSeen(ctx context.Context, measurementID string) error {
	if measurementID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO intake_seen (measurement_id) VALUES ($1) ON CONFLICT DO NOTHING`, measurementID,
	)
	if err != nil {
		return fmt.Errorf("mark intake seen: %w", err)
	}
	return nil
}

// LoadSeen returns all seen measurement IDs.
func (s *IntakeProgressStore) LoadSeen(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT measurement_id FROM intake_seen`)
	if err != nil {
		return nil, fmt.Errorf("load intake seen: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen rows: %w", err)
	}

	return ids, nil
}

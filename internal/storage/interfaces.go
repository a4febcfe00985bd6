package storage

import (
	"context"

	"bodycomp-lab/internal/domain"
)

// MeasurementStore provides access to measurements storage.
// Measurements are mutable: the surrounding application records, corrects
// and deletes them, and derived results follow.
type MeasurementStore interface {
	// Insert adds a new measurement. Returns ErrDuplicateKey if measurement_id exists.
	Insert(ctx context.Context, m *domain.MeasurementInput) error

	// GetByID retrieves a measurement by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, measurementID string) (*domain.MeasurementInput, error)

	// GetBySubject retrieves all measurements for a subject, ordered by taken_at ASC.
	GetBySubject(ctx context.Context, subjectID string) ([]*domain.MeasurementInput, error)

	// GetAll retrieves all measurements, ordered by taken_at ASC.
	GetAll(ctx context.Context) ([]*domain.MeasurementInput, error)

	// Update replaces an existing measurement. Returns ErrNotFound if not exists.
	Update(ctx context.Context, m *domain.MeasurementInput) error

	// Delete removes a measurement and its derived result. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, measurementID string) error
}

// ResultStore provides access to calculation_results storage.
// Results are derived state: one row per measurement, replaced wholesale
// on every recomputation.
type ResultStore interface {
	// Upsert inserts or replaces the result for a measurement.
	Upsert(ctx context.Context, r *domain.CalculationResult) error

	// GetByMeasurementID retrieves the result for a measurement. Returns ErrNotFound if not exists.
	GetByMeasurementID(ctx context.Context, measurementID string) (*domain.CalculationResult, error)

	// GetBySubject retrieves all results for a subject.
	GetBySubject(ctx context.Context, subjectID string) ([]*domain.CalculationResult, error)

	// GetAll retrieves all results.
	GetAll(ctx context.Context) ([]*domain.CalculationResult, error)

	// DeleteByMeasurementID removes the result for a measurement.
	// Returns ErrNotFound if not exists.
	DeleteByMeasurementID(ctx context.Context, measurementID string) error
}

// CohortAggregateStore provides access to cohort_aggregates storage.
// Aggregates are append-only snapshots keyed by (sex, objective, generated_at).
type CohortAggregateStore interface {
	// Insert adds a new aggregate snapshot. Returns ErrDuplicateKey if key exists.
	Insert(ctx context.Context, a *domain.CohortAggregate) error

	// GetLatest retrieves the most recent snapshot for a cohort.
	// Returns ErrNotFound if no snapshot exists.
	GetLatest(ctx context.Context, sex domain.Sex, objective domain.Objective) (*domain.CohortAggregate, error)

	// GetAll retrieves all snapshots, ordered by generated_at ASC.
	GetAll(ctx context.Context) ([]*domain.CohortAggregate, error)
}

// ResultHistoryStore provides access to the append-only calculation history.
// Every computation appends one row; recomputations do not overwrite, so the
// history preserves the full trail per subject.
type ResultHistoryStore interface {
	// Append adds history entries. Entries are never updated or deleted.
	Append(ctx context.Context, entries []*domain.CalculationHistoryEntry) error

	// GetBySubject retrieves all entries for a subject, ordered by
	// taken_at ASC, then computed_at ASC.
	GetBySubject(ctx context.Context, subjectID string) ([]*domain.CalculationHistoryEntry, error)

	// GetByTimeRange retrieves entries for a subject with taken_at within
	// [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, subjectID string, start, end int64) ([]*domain.CalculationHistoryEntry, error)
}

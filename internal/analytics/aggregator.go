package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// ErrNoResults is returned when a cohort has no computed results to aggregate.
var ErrNoResults = errors.New("no results available for aggregation")

// Aggregator computes cohort aggregates from stored calculation results.
type Aggregator struct {
	resultStore      storage.ResultStore
	measurementStore storage.MeasurementStore
	aggregateStore   storage.CohortAggregateStore

	// MissingMeasurements tracks measurement_ids whose backing measurement is
	// gone but whose result survived (for data quality reporting).
	// Key: measurement_id, Value: times the orphan was encountered.
	MissingMeasurements map[string]int
}

// NewAggregator creates a new cohort aggregator.
func NewAggregator(resultStore storage.ResultStore, measurementStore storage.MeasurementStore, aggregateStore storage.CohortAggregateStore) *Aggregator {
	return &Aggregator{
		resultStore:         resultStore,
		measurementStore:    measurementStore,
		aggregateStore:      aggregateStore,
		MissingMeasurements: make(map[string]int),
	}
}

// ComputeAggregate computes the aggregate snapshot for one (sex, objective)
// cohort. Loads all results, resolves each backing measurement and filters by
// the cohort key. A measurement with an empty objective counts toward
// MAINTAIN, matching how the calculator defaults it.
// Returns ErrNoResults if no results fall into the cohort.
func (a *Aggregator) ComputeAggregate(ctx context.Context, sex domain.Sex, objective domain.Objective, generatedAtMs int64) (*domain.CohortAggregate, error) {
	results, err := a.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := a.filterByCohort(ctx, results, sex, objective)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, ErrNoResults
	}

	agg := computeFromCohort(entries, sex, objective)
	agg.GeneratedAtMs = generatedAtMs

	return agg, nil
}

// filterByCohort pairs results with their measurements, keeping those whose
// measurement matches the cohort key.
// Tracks orphaned results in a.MissingMeasurements instead of silently skipping.
func (a *Aggregator) filterByCohort(ctx context.Context, results []*domain.CalculationResult, sex domain.Sex, objective domain.Objective) ([]*cohortEntry, error) {
	var filtered []*cohortEntry

	for _, r := range results {
		m, err := a.measurementStore.GetByID(ctx, r.MeasurementID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Record the orphaned result (don't silently skip)
				a.MissingMeasurements[r.MeasurementID]++
				continue
			}
			return nil, err
		}

		if m.Sex != sex {
			continue
		}
		mObjective := m.Objective
		if mObjective == "" {
			mObjective = domain.ObjectiveMaintain
		}
		if mObjective != objective {
			continue
		}

		filtered = append(filtered, &cohortEntry{result: r, measurement: m})
	}

	return filtered, nil
}

// GetMissingMeasurementErrors returns data quality errors for orphaned results.
// Returns slice of error messages sorted by measurement_id for deterministic output.
func (a *Aggregator) GetMissingMeasurementErrors() []string {
	if len(a.MissingMeasurements) == 0 {
		return nil
	}

	// Sort keys for deterministic output
	keys := make([]string, 0, len(a.MissingMeasurements))
	for k := range a.MissingMeasurements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errors := make([]string, len(keys))
	for i, measurementID := range keys {
		count := a.MissingMeasurements[measurementID]
		errors[i] = fmt.Sprintf("missing measurement %s referenced by stored result (seen %d time(s))", measurementID, count)
	}
	return errors
}

// ComputeAndStore computes and persists the aggregate snapshot.
// Returns storage.ErrDuplicateKey if the snapshot already exists (append-only).
func (a *Aggregator) ComputeAndStore(ctx context.Context, sex domain.Sex, objective domain.Objective, generatedAtMs int64) (*domain.CohortAggregate, error) {
	agg, err := a.ComputeAggregate(ctx, sex, objective, generatedAtMs)
	if err != nil {
		return nil, err
	}

	// Persist snapshot (append-only, returns ErrDuplicateKey on duplicate)
	if err := a.aggregateStore.Insert(ctx, agg); err != nil {
		return nil, err
	}

	return agg, nil
}

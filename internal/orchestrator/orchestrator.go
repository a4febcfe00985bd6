// Package orchestrator reconciles derived state with stored measurements.
// It coordinates: stale detection → recompute → orphan cleanup → cohort aggregation
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bodycomp-lab/internal/analytics"
	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/fingerprint"
	"bodycomp-lab/internal/storage"
)

// Orchestrator brings every stored result back in line with its
// measurement. A result is recomputed when it is missing, its input
// fingerprint no longer matches, or it was computed by an older engine.
type Orchestrator struct {
	measurementStore storage.MeasurementStore
	resultStore      storage.ResultStore
	historyStore     storage.ResultHistoryStore
	aggregateStore   storage.CohortAggregateStore

	calculator *calc.Calculator

	skipAggregation bool
	logger          zerolog.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	MeasurementStore storage.MeasurementStore
	ResultStore      storage.ResultStore
	HistoryStore     storage.ResultHistoryStore
	AggregateStore   storage.CohortAggregateStore

	Calculator *calc.Calculator

	// Options
	SkipAggregation bool // Skip cohort snapshot refresh after reconciliation
	Logger          zerolog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		measurementStore: opts.MeasurementStore,
		resultStore:      opts.ResultStore,
		historyStore:     opts.HistoryStore,
		aggregateStore:   opts.AggregateStore,
		calculator:       opts.Calculator,
		skipAggregation:  opts.SkipAggregation,
		logger:           opts.Logger,
	}
}

// RunResult contains results from one reconciliation run.
type RunResult struct {
	MeasurementsChecked int
	ResultsRecomputed   int
	ResultsUpToDate     int
	OrphansDeleted      int
	AggregatesCreated   int
	Errors              []string
}

// Run executes one full reconciliation.
// Phases:
//  1. Load measurements
//  2. Recompute missing and stale results, appending history
//  3. Delete orphaned results
//  4. Refresh cohort aggregate snapshots
//
// Per-row failures are collected in RunResult.Errors; only a phase that
// cannot start at all aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Load all measurements
	measurements, err := o.measurementStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load measurements) failed: %w", err)
	}
	result.MeasurementsChecked = len(measurements)
	o.logger.Debug().Int("measurements", len(measurements)).Msg("Reconciliation started")

	// Phase 2: Recompute
	recomputed, upToDate, recomputeErrs := o.reconcileResults(ctx, measurements)
	result.ResultsRecomputed = recomputed
	result.ResultsUpToDate = upToDate
	result.Errors = append(result.Errors, recomputeErrs...)

	// Phase 3: Orphan cleanup
	orphans, orphanErrs := o.deleteOrphans(ctx, measurements)
	result.OrphansDeleted = orphans
	result.Errors = append(result.Errors, orphanErrs...)

	// Phase 4: Cohort aggregation
	if !o.skipAggregation {
		created, aggErrs := o.runAggregation(ctx)
		result.AggregatesCreated = created
		result.Errors = append(result.Errors, aggErrs...)
	}

	o.logger.Info().
		Int("checked", result.MeasurementsChecked).
		Int("recomputed", result.ResultsRecomputed).
		Int("up_to_date", result.ResultsUpToDate).
		Int("orphans_deleted", result.OrphansDeleted).
		Int("aggregates", result.AggregatesCreated).
		Int("errors", len(result.Errors)).
		Msg("Reconciliation finished")

	return result, nil
}

// reconcileResults recomputes every measurement whose result is missing,
// has a stale fingerprint, or was produced by an older engine version.
func (o *Orchestrator) reconcileResults(ctx context.Context, measurements []*domain.MeasurementInput) (recomputed, upToDate int, errs []string) {
	for _, m := range measurements {
		r, err := o.resultStore.GetByMeasurementID(ctx, m.MeasurementID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Sprintf("load result %s: %v", m.MeasurementID, err))
			continue
		}

		// Stale treats a nil result as stale, so a missing row recomputes.
		if !fingerprint.Stale(m, r, calc.EngineVersion) {
			upToDate++
			continue
		}

		fresh, err := o.calculator.Compute(m)
		if err != nil {
			// Malformed rows cannot heal by retrying; surface them.
			errs = append(errs, fmt.Sprintf("recompute %s: %v", m.MeasurementID, err))
			continue
		}
		if err := o.resultStore.Upsert(ctx, fresh); err != nil {
			errs = append(errs, fmt.Sprintf("store result %s: %v", m.MeasurementID, err))
			continue
		}
		if err := o.historyStore.Append(ctx, []*domain.CalculationHistoryEntry{domain.NewHistoryEntry(m, fresh)}); err != nil {
			errs = append(errs, fmt.Sprintf("append history %s: %v", m.MeasurementID, err))
			continue
		}

		o.logger.Debug().
			Str("measurement_id", m.MeasurementID).
			Str("fingerprint", fresh.InputFingerprint).
			Msg("Result recomputed")
		recomputed++
	}
	return recomputed, upToDate, errs
}

// deleteOrphans removes results whose measurement is gone. The store-level
// delete cascade covers normal deletes; this catches rows left behind by
// direct table edits or partial restores.
func (o *Orchestrator) deleteOrphans(ctx context.Context, measurements []*domain.MeasurementInput) (int, []string) {
	known := make(map[string]bool, len(measurements))
	for _, m := range measurements {
		known[m.MeasurementID] = true
	}

	results, err := o.resultStore.GetAll(ctx)
	if err != nil {
		return 0, []string{fmt.Sprintf("load results: %v", err)}
	}

	var deleted int
	var errs []string
	for _, r := range results {
		if known[r.MeasurementID] {
			continue
		}
		if err := o.resultStore.DeleteByMeasurementID(ctx, r.MeasurementID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Sprintf("delete orphan result %s: %v", r.MeasurementID, err))
			continue
		}
		o.logger.Debug().Str("measurement_id", r.MeasurementID).Msg("Orphaned result deleted")
		deleted++
	}
	return deleted, errs
}

// runAggregation refreshes cohort snapshots for all sex/objective
// combinations, one shared timestamp per run.
func (o *Orchestrator) runAggregation(ctx context.Context) (int, []string) {
	aggregator := analytics.NewAggregator(o.resultStore, o.measurementStore, o.aggregateStore)
	generatedAt := time.Now().UnixMilli()

	var created int
	var errs []string

	for _, sex := range []domain.Sex{domain.SexMale, domain.SexFemale} {
		for _, objective := range []domain.Objective{domain.ObjectiveLoss, domain.ObjectiveGain, domain.ObjectiveMaintain} {
			_, err := aggregator.ComputeAndStore(ctx, sex, objective, generatedAt)
			if err != nil {
				// Skip empty cohorts (expected for some combinations)
				if errors.Is(err, analytics.ErrNoResults) {
					continue
				}
				// Skip duplicate key errors (already aggregated at this stamp)
				if errors.Is(err, storage.ErrDuplicateKey) {
					continue
				}
				errs = append(errs, fmt.Sprintf("aggregate %s/%s: %v", sex, objective, err))
				continue
			}
			created++
		}
	}

	errs = append(errs, aggregator.GetMissingMeasurementErrors()...)
	return created, errs
}

// Package orchestrator provides reconciliation tests.
package orchestrator

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/fingerprint"
	"bodycomp-lab/internal/storage/memory"
)

func TestOrchestrator_Run_Empty(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	result, err := newTestOrchestrator(stores, false).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.MeasurementsChecked != 0 {
		t.Errorf("expected 0 measurements checked, got %d", result.MeasurementsChecked)
	}
	if result.ResultsRecomputed != 0 {
		t.Errorf("expected 0 recomputed, got %d", result.ResultsRecomputed)
	}
	if result.AggregatesCreated != 0 {
		t.Errorf("expected 0 aggregates, got %d", result.AggregatesCreated)
	}
}

func TestOrchestrator_Run_MissingResult(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	m := sampleMeasurement("m1", "s1")
	if err := stores.measurementStore.Insert(ctx, m); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}

	result, err := newTestOrchestrator(stores, true).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.ResultsRecomputed != 1 {
		t.Errorf("expected 1 recomputed, got %d", result.ResultsRecomputed)
	}
	if result.ResultsUpToDate != 0 {
		t.Errorf("expected 0 up to date, got %d", result.ResultsUpToDate)
	}

	stored, err := stores.resultStore.GetByMeasurementID(ctx, "m1")
	if err != nil {
		t.Fatalf("result not stored: %v", err)
	}
	if stored.InputFingerprint != fingerprint.Measurement(m) {
		t.Errorf("stored fingerprint %q does not match measurement", stored.InputFingerprint)
	}

	history, err := stores.historyStore.GetBySubject(ctx, "s1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(history))
	}
}

func TestOrchestrator_Run_UpToDate(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	m := sampleMeasurement("m1", "s1")
	if err := stores.measurementStore.Insert(ctx, m); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}
	r, err := calc.NewCalculator(calc.DefaultConfig).Compute(m)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if err := stores.resultStore.Upsert(ctx, r); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	result, err := newTestOrchestrator(stores, true).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.ResultsRecomputed != 0 {
		t.Errorf("expected 0 recomputed, got %d", result.ResultsRecomputed)
	}
	if result.ResultsUpToDate != 1 {
		t.Errorf("expected 1 up to date, got %d", result.ResultsUpToDate)
	}

	// No recompute means no new history rows.
	history, err := stores.historyStore.GetBySubject(ctx, "s1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected 0 history entries, got %d", len(history))
	}
}

func TestOrchestrator_Run_StaleFingerprint(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	m := sampleMeasurement("m1", "s1")
	if err := stores.measurementStore.Insert(ctx, m); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}
	r, err := calc.NewCalculator(calc.DefaultConfig).Compute(m)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if err := stores.resultStore.Upsert(ctx, r); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	// Correct the measurement after the result was stored.
	corrected := sampleMeasurement("m1", "s1")
	corrected.WeightKG = 64.5
	if err := stores.measurementStore.Update(ctx, corrected); err != nil {
		t.Fatalf("update measurement: %v", err)
	}

	result, err := newTestOrchestrator(stores, true).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.ResultsRecomputed != 1 {
		t.Errorf("expected 1 recomputed, got %d", result.ResultsRecomputed)
	}

	stored, err := stores.resultStore.GetByMeasurementID(ctx, "m1")
	if err != nil {
		t.Fatalf("result not stored: %v", err)
	}
	if stored.InputFingerprint != fingerprint.Measurement(corrected) {
		t.Errorf("result still carries the pre-correction fingerprint %q", stored.InputFingerprint)
	}
	if stored.InputFingerprint == r.InputFingerprint {
		t.Error("fingerprint did not change after correction")
	}
}

func TestOrchestrator_Run_StaleEngineVersion(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	m := sampleMeasurement("m1", "s1")
	if err := stores.measurementStore.Insert(ctx, m); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}

	// Fingerprint matches but the engine has moved on.
	old := &domain.CalculationResult{
		MeasurementID:    "m1",
		SubjectID:        "s1",
		ComputedAtMs:     1_700_000_100_000,
		InputFingerprint: fingerprint.Measurement(m),
		EngineVersion:    "0.9.0",
	}
	if err := stores.resultStore.Upsert(ctx, old); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	result, err := newTestOrchestrator(stores, true).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.ResultsRecomputed != 1 {
		t.Errorf("expected 1 recomputed, got %d", result.ResultsRecomputed)
	}

	stored, err := stores.resultStore.GetByMeasurementID(ctx, "m1")
	if err != nil {
		t.Fatalf("result not stored: %v", err)
	}
	if stored.EngineVersion != calc.EngineVersion {
		t.Errorf("expected engine version %q, got %q", calc.EngineVersion, stored.EngineVersion)
	}
}

func TestOrchestrator_Run_OrphanCleanup(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	orphan := &domain.CalculationResult{
		MeasurementID: "gone",
		SubjectID:     "s9",
		ComputedAtMs:  1_700_000_100_000,
		EngineVersion: calc.EngineVersion,
	}
	if err := stores.resultStore.Upsert(ctx, orphan); err != nil {
		t.Fatalf("upsert orphan: %v", err)
	}

	result, err := newTestOrchestrator(stores, true).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.OrphansDeleted != 1 {
		t.Errorf("expected 1 orphan deleted, got %d", result.OrphansDeleted)
	}

	all, err := stores.resultStore.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all results: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected orphan removed, %d results remain", len(all))
	}
}

func TestOrchestrator_Run_Aggregation(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	for _, id := range []string{"m1", "m2"} {
		if err := stores.measurementStore.Insert(ctx, sampleMeasurement(id, "s-"+id)); err != nil {
			t.Fatalf("insert measurement: %v", err)
		}
	}

	result, err := newTestOrchestrator(stores, false).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// All measurements share one cohort; the other five combinations are
	// empty and skipped without error.
	if result.AggregatesCreated != 1 {
		t.Errorf("expected 1 aggregate, got %d", result.AggregatesCreated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}

	agg, err := stores.aggregateStore.GetLatest(ctx, domain.SexFemale, domain.ObjectiveMaintain)
	if err != nil {
		t.Fatalf("aggregate not stored: %v", err)
	}
	if agg.TotalMeasurements != 2 {
		t.Errorf("expected 2 measurements in cohort, got %d", agg.TotalMeasurements)
	}
}

func TestOrchestrator_Run_SkipAggregation(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	if err := stores.measurementStore.Insert(ctx, sampleMeasurement("m1", "s1")); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}

	result, err := newTestOrchestrator(stores, true).Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.AggregatesCreated != 0 {
		t.Errorf("expected 0 aggregates, got %d", result.AggregatesCreated)
	}
	all, err := stores.aggregateStore.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all aggregates: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected no stored aggregates, got %d", len(all))
	}
}

func TestOrchestrator_Run_CollectsRowErrors(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	bad := sampleMeasurement("m-bad", "s1")
	bad.WeightKG = -5
	if err := stores.measurementStore.Insert(ctx, bad); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}
	if err := stores.measurementStore.Insert(ctx, sampleMeasurement("m-good", "s2")); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}

	result, err := newTestOrchestrator(stores, true).Run(ctx)
	if err != nil {
		t.Fatalf("a bad row must not abort the run, got: %v", err)
	}

	if result.ResultsRecomputed != 1 {
		t.Errorf("expected 1 recomputed, got %d", result.ResultsRecomputed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 collected error, got %v", result.Errors)
	}

	// The good row still landed.
	if _, err := stores.resultStore.GetByMeasurementID(ctx, "m-good"); err != nil {
		t.Errorf("good result not stored: %v", err)
	}
}

// sampleMeasurement builds a computable female measurement with a full
// Durnin-Womersley skinfold set.
func sampleMeasurement(measurementID, subjectID string) *domain.MeasurementInput {
	triceps := 18.5
	biceps := 11.0
	subscapular := 16.0
	suprailiac := 15.0
	return &domain.MeasurementInput{
		MeasurementID:       measurementID,
		SubjectID:           subjectID,
		TakenAtMs:           1_700_000_000_000,
		Sex:                 domain.SexFemale,
		AgeYears:            30,
		Objective:           domain.ObjectiveMaintain,
		WeightKG:            62,
		HeightCM:            167,
		SkinfoldTriceps:     &triceps,
		SkinfoldBiceps:      &biceps,
		SkinfoldSubscapular: &subscapular,
		SkinfoldSuprailiac:  &suprailiac,
	}
}

// testStores holds all memory stores for testing.
type testStores struct {
	measurementStore *memory.MeasurementStore
	resultStore      *memory.ResultStore
	historyStore     *memory.ResultHistoryStore
	aggregateStore   *memory.CohortAggregateStore
}

func createTestStores() *testStores {
	results := memory.NewResultStore()
	return &testStores{
		measurementStore: memory.NewMeasurementStore().WithResultCascade(results),
		resultStore:      results,
		historyStore:     memory.NewResultHistoryStore(),
		aggregateStore:   memory.NewCohortAggregateStore(),
	}
}

func newTestOrchestrator(stores *testStores, skipAggregation bool) *Orchestrator {
	return New(Options{
		MeasurementStore: stores.measurementStore,
		ResultStore:      stores.resultStore,
		HistoryStore:     stores.historyStore,
		AggregateStore:   stores.aggregateStore,
		Calculator:       calc.NewCalculator(calc.DefaultConfig),
		SkipAggregation:  skipAggregation,
		Logger:           zerolog.Nop(),
	})
}

package verification

import (
	"context"
	"errors"
	"testing"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage/memory"
)

func TestCompareResults_ExactMatch(t *testing.T) {
	r, _ := computeSample(t, "m1", "s1")

	divergences := CompareResults(r, r.Clone())

	if len(divergences) != 0 {
		t.Errorf("Expected 0 divergences, got %d: %v", len(divergences), divergences)
	}
}

func TestCompareResults_NumericDivergence(t *testing.T) {
	stored, _ := computeSample(t, "m1", "s1")
	recomputed := stored.Clone()
	*recomputed.BodyFatPct += 0.1

	divergences := CompareResults(stored, recomputed)

	if len(divergences) != 1 {
		t.Fatalf("Expected 1 divergence, got %d: %v", len(divergences), divergences)
	}
	if divergences[0].Field != "body_fat_pct" {
		t.Errorf("Expected body_fat_pct divergence, got %s", divergences[0].Field)
	}
}

func TestCompareResults_ExactComparison(t *testing.T) {
	stored, _ := computeSample(t, "m1", "s1")
	recomputed := stored.Clone()
	// Any difference counts, however small.
	*recomputed.BodyDensity += 1e-12

	divergences := CompareResults(stored, recomputed)

	found := false
	for _, d := range divergences {
		if d.Field == "body_density" {
			found = true
		}
	}
	if !found {
		t.Error("Expected body_density divergence for a sub-epsilon difference")
	}
}

func TestCompareResults_NullableFields(t *testing.T) {
	stored := &domain.CalculationResult{MeasurementID: "m1", SubjectID: "s1"}
	recomputed := &domain.CalculationResult{MeasurementID: "m1", SubjectID: "s1"}

	if divergences := CompareResults(stored, recomputed); len(divergences) != 0 {
		t.Errorf("Should not diverge when both sides are nil: %v", divergences)
	}
}

func TestCompareResults_NullVsValue(t *testing.T) {
	stored := &domain.CalculationResult{MeasurementID: "m1", SubjectID: "s1"}
	recomputed := &domain.CalculationResult{
		MeasurementID: "m1",
		SubjectID:     "s1",
		MuscleMassKG:  ptrFloat64(28.4),
	}

	divergences := CompareResults(stored, recomputed)

	found := false
	for _, d := range divergences {
		if d.Field == "muscle_mass_kg" {
			found = true
		}
	}
	if !found {
		t.Error("Expected muscle_mass_kg divergence when nil vs value")
	}
}

func TestCompareResults_WarningDivergence(t *testing.T) {
	stored, _ := computeSample(t, "m1", "s1")
	recomputed := stored.Clone()
	recomputed.Warnings = append(recomputed.Warnings, domain.Warning{
		Code:  domain.WarningSkinfoldSuspicious,
		Field: "skinfold_triceps",
	})

	divergences := CompareResults(stored, recomputed)

	found := false
	for _, d := range divergences {
		if d.Field == "warnings" {
			found = true
		}
	}
	if !found {
		t.Error("Expected warnings divergence")
	}
}

func TestCompareResults_EngineVersionDivergence(t *testing.T) {
	stored, _ := computeSample(t, "m1", "s1")
	recomputed := stored.Clone()
	recomputed.EngineVersion = "9.9.9"

	divergences := CompareResults(stored, recomputed)

	if len(divergences) != 1 {
		t.Fatalf("Expected 1 divergence, got %d: %v", len(divergences), divergences)
	}
	if divergences[0].Field != "engine_version" {
		t.Errorf("Expected engine_version divergence, got %s", divergences[0].Field)
	}
}

func TestRecomputeVerifier_VerifyResult_Match(t *testing.T) {
	ctx := context.Background()
	v, stores := newTestVerifier()

	r, m := computeSample(t, "m1", "s1")
	if err := stores.measurements.Insert(ctx, m); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}
	if err := stores.results.Upsert(ctx, r); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	result, err := v.VerifyResult(ctx, "m1")
	if err != nil {
		t.Fatalf("VerifyResult failed: %v", err)
	}

	if !result.Match {
		t.Errorf("Expected match, got divergences: %v", result.Divergences)
	}
	if result.SubjectID != "s1" {
		t.Errorf("Expected subject s1, got %s", result.SubjectID)
	}
}

func TestRecomputeVerifier_VerifyResult_DetectsTamper(t *testing.T) {
	ctx := context.Background()
	v, stores := newTestVerifier()

	r, m := computeSample(t, "m1", "s1")
	tampered := r.Clone()
	*tampered.BodyFatPct += 2.0

	if err := stores.measurements.Insert(ctx, m); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}
	if err := stores.results.Upsert(ctx, tampered); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	result, err := v.VerifyResult(ctx, "m1")
	if err != nil {
		t.Fatalf("VerifyResult failed: %v", err)
	}

	if result.Match {
		t.Fatal("Expected divergence for a tampered result")
	}
	if len(result.Divergences) != 1 || result.Divergences[0].Field != "body_fat_pct" {
		t.Errorf("Expected a single body_fat_pct divergence, got %v", result.Divergences)
	}
}

func TestRecomputeVerifier_VerifyResult_NotFound(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVerifier()

	_, err := v.VerifyResult(ctx, "missing")
	if !errors.Is(err, ErrResultNotFound) {
		t.Errorf("Expected ErrResultNotFound, got %v", err)
	}
}

func TestRecomputeVerifier_VerifyResult_MissingMeasurement(t *testing.T) {
	ctx := context.Background()
	v, stores := newTestVerifier()

	r, _ := computeSample(t, "m1", "s1")
	if err := stores.results.Upsert(ctx, r); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	_, err := v.VerifyResult(ctx, "m1")
	if !errors.Is(err, ErrMeasurementNotFound) {
		t.Errorf("Expected ErrMeasurementNotFound, got %v", err)
	}
}

func TestRecomputeVerifier_VerifyAll(t *testing.T) {
	ctx := context.Background()
	v, stores := newTestVerifier()

	for _, id := range []string{"m1", "m2"} {
		r, m := computeSample(t, id, "s-"+id)
		if err := stores.measurements.Insert(ctx, m); err != nil {
			t.Fatalf("insert measurement: %v", err)
		}
		if err := stores.results.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert result: %v", err)
		}
	}

	r3, m3 := computeSample(t, "m3", "s3")
	tampered := r3.Clone()
	*tampered.BodyFatPct += 2.0
	if err := stores.measurements.Insert(ctx, m3); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}
	if err := stores.results.Upsert(ctx, tampered); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	report, err := v.VerifyAll(ctx)
	if err != nil {
		t.Fatalf("VerifyAll failed: %v", err)
	}

	if report.TotalResults != 3 {
		t.Errorf("Expected 3 total results, got %d", report.TotalResults)
	}
	if report.MatchedResults != 2 {
		t.Errorf("Expected 2 matched results, got %d", report.MatchedResults)
	}
	if report.DivergentResults != 1 {
		t.Errorf("Expected 1 divergent result, got %d", report.DivergentResults)
	}
	if report.DriftByField["body_fat_pct"] != 1 {
		t.Errorf("Expected body_fat_pct drift count 1, got %d", report.DriftByField["body_fat_pct"])
	}
}

type verifierStores struct {
	measurements *memory.MeasurementStore
	results      *memory.ResultStore
}

func newTestVerifier() (*RecomputeVerifier, *verifierStores) {
	results := memory.NewResultStore()
	stores := &verifierStores{
		measurements: memory.NewMeasurementStore().WithResultCascade(results),
		results:      results,
	}
	v := NewRecomputeVerifier(RecomputeVerifierOptions{
		ResultStore:      stores.results,
		MeasurementStore: stores.measurements,
		Calculator:       calc.NewCalculator(calc.DefaultConfig),
	})
	return v, stores
}

// computeSample computes a result for a female measurement with the full
// Durnin-Womersley skinfold set, so body fat and energy fields are present.
func computeSample(t *testing.T, measurementID, subjectID string) (*domain.CalculationResult, *domain.MeasurementInput) {
	t.Helper()
	m := &domain.MeasurementInput{
		MeasurementID:       measurementID,
		SubjectID:           subjectID,
		TakenAtMs:           1_700_000_000_000,
		Sex:                 domain.SexFemale,
		AgeYears:            30,
		Objective:           domain.ObjectiveMaintain,
		WeightKG:            62,
		HeightCM:            167,
		SkinfoldTriceps:     ptrFloat64(18.5),
		SkinfoldBiceps:      ptrFloat64(11.0),
		SkinfoldSubscapular: ptrFloat64(16.0),
		SkinfoldSuprailiac:  ptrFloat64(15.0),
	}
	r, err := calc.NewCalculator(calc.DefaultConfig).Compute(m)
	if err != nil {
		t.Fatalf("compute sample: %v", err)
	}
	return r, m
}

func ptrFloat64(v float64) *float64 {
	return &v
}

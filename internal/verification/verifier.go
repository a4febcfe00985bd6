// Package verification implements recompute verification.
// It verifies that stored calculation results match a fresh computation
// from the stored measurement.
package verification

import (
	"context"

	"bodycomp-lab/internal/domain"
)

// FieldDivergence represents a mismatch between stored and recomputed values.
type FieldDivergence struct {
	Field    string      // canonical field name
	Expected interface{} // stored value
	Actual   interface{} // recomputed value
}

// VerificationResult contains the result of verifying a single stored result.
type VerificationResult struct {
	MeasurementID string            // verified measurement ID
	SubjectID     string            // owning subject
	Match         bool              // true if all fields match
	Divergences   []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalResults     int                  // total stored results verified
	MatchedResults   int                  // results that matched exactly
	DivergentResults int                  // results with divergences
	DriftByField     map[string]int       // divergence count per field name
	Results          []VerificationResult // individual results
}

// Verifier interface for recompute verification.
type Verifier interface {
	// VerifyResult verifies a single stored result by measurement ID.
	// It loads the stored result, recomputes from the stored measurement,
	// and compares all fields.
	VerifyResult(ctx context.Context, measurementID string) (*VerificationResult, error)

	// VerifyAll verifies all stored results.
	// Returns a report with individual results and per-field drift counts.
	VerifyAll(ctx context.Context) (*VerificationReport, error)
}

// numericFields lists every derived numeric field under its canonical name.
// Order matches CalculationResult's declaration order.
var numericFields = []struct {
	name string
	get  func(*domain.CalculationResult) *float64
}{
	{"sum4_skinfolds", func(r *domain.CalculationResult) *float64 { return r.Sum4Skinfolds }},
	{"sum6_skinfolds", func(r *domain.CalculationResult) *float64 { return r.Sum6Skinfolds }},
	{"sum3_skinfolds", func(r *domain.CalculationResult) *float64 { return r.Sum3Skinfolds }},
	{"sum8_skinfolds", func(r *domain.CalculationResult) *float64 { return r.Sum8Skinfolds }},
	{"body_density", func(r *domain.CalculationResult) *float64 { return r.BodyDensity }},
	{"body_fat_pct", func(r *domain.CalculationResult) *float64 { return r.BodyFatPct }},
	{"fat_mass_kg", func(r *domain.CalculationResult) *float64 { return r.FatMassKG }},
	{"lean_mass_kg", func(r *domain.CalculationResult) *float64 { return r.LeanMassKG }},
	{"muscle_mass_kg", func(r *domain.CalculationResult) *float64 { return r.MuscleMassKG }},
	{"adipose_mass_kg", func(r *domain.CalculationResult) *float64 { return r.AdiposeMassKG }},
	{"bone_mass_kg", func(r *domain.CalculationResult) *float64 { return r.BoneMassKG }},
	{"residual_mass_kg", func(r *domain.CalculationResult) *float64 { return r.ResidualMassKG }},
	{"skin_mass_kg", func(r *domain.CalculationResult) *float64 { return r.SkinMassKG }},
	{"muscle_mass_pct", func(r *domain.CalculationResult) *float64 { return r.MuscleMassPct }},
	{"adipose_mass_pct", func(r *domain.CalculationResult) *float64 { return r.AdiposeMassPct }},
	{"bone_mass_pct", func(r *domain.CalculationResult) *float64 { return r.BoneMassPct }},
	{"residual_mass_pct", func(r *domain.CalculationResult) *float64 { return r.ResidualMassPct }},
	{"skin_mass_pct", func(r *domain.CalculationResult) *float64 { return r.SkinMassPct }},
	{"component_sum_kg", func(r *domain.CalculationResult) *float64 { return r.ComponentSumKG }},
	{"component_sum_deviation_pct", func(r *domain.CalculationResult) *float64 { return r.ComponentSumDeviationPct }},
	{"endomorphy", func(r *domain.CalculationResult) *float64 { return r.Endomorphy }},
	{"mesomorphy", func(r *domain.CalculationResult) *float64 { return r.Mesomorphy }},
	{"ectomorphy", func(r *domain.CalculationResult) *float64 { return r.Ectomorphy }},
	{"bmr_kcal", func(r *domain.CalculationResult) *float64 { return r.BMRKcal }},
	{"maintenance_kcal", func(r *domain.CalculationResult) *float64 { return r.MaintenanceKcal }},
	{"target_kcal", func(r *domain.CalculationResult) *float64 { return r.TargetKcal }},
	{"protein_g", func(r *domain.CalculationResult) *float64 { return r.ProteinG }},
	{"fat_g", func(r *domain.CalculationResult) *float64 { return r.FatG }},
	{"carbs_g", func(r *domain.CalculationResult) *float64 { return r.CarbsG }},
}

// CompareResults compares a stored result against a recomputed one and
// returns divergences. The engine is pure, so a recompute from the same
// measurement must reproduce every numeric field bit for bit; comparisons
// are exact, with no tolerance. ComputedAtMs is wall-clock metadata and
// always differs between runs, so it is not compared.
func CompareResults(stored, recomputed *domain.CalculationResult) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.MeasurementID != recomputed.MeasurementID {
		divergences = append(divergences, FieldDivergence{
			Field:    "measurement_id",
			Expected: stored.MeasurementID,
			Actual:   recomputed.MeasurementID,
		})
	}

	if stored.SubjectID != recomputed.SubjectID {
		divergences = append(divergences, FieldDivergence{
			Field:    "subject_id",
			Expected: stored.SubjectID,
			Actual:   recomputed.SubjectID,
		})
	}

	for _, f := range numericFields {
		s, r := f.get(stored), f.get(recomputed)
		if !floatPtrEquals(s, r) {
			divergences = append(divergences, FieldDivergence{
				Field:    f.name,
				Expected: derefOrNil(s),
				Actual:   derefOrNil(r),
			})
		}
	}

	if !warningsEqual(stored.Warnings, recomputed.Warnings) {
		divergences = append(divergences, FieldDivergence{
			Field:    "warnings",
			Expected: warningCodes(stored.Warnings),
			Actual:   warningCodes(recomputed.Warnings),
		})
	}

	// A mismatch here means the stored result is stale, not that the
	// engine drifted; reconciliation is the fix.
	if stored.EngineVersion != recomputed.EngineVersion {
		divergences = append(divergences, FieldDivergence{
			Field:    "engine_version",
			Expected: stored.EngineVersion,
			Actual:   recomputed.EngineVersion,
		})
	}

	if stored.InputFingerprint != recomputed.InputFingerprint {
		divergences = append(divergences, FieldDivergence{
			Field:    "input_fingerprint",
			Expected: stored.InputFingerprint,
			Actual:   recomputed.InputFingerprint,
		})
	}

	return divergences
}

// floatPtrEquals compares two *float64 values exactly.
// Returns true if both are nil, or both are non-nil and bit-identical.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func derefOrNil(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// warningsEqual compares warning lists pairwise. The engine emits warnings
// in a deterministic order, so order matters.
func warningsEqual(a, b []domain.Warning) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Code != b[i].Code || a[i].Field != b[i].Field {
			return false
		}
	}
	return true
}

func warningCodes(warnings []domain.Warning) []string {
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, string(w.Code))
	}
	return codes
}

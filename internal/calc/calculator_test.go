package calc

import (
	"errors"
	"math"
	"testing"
	"time"

	"bodycomp-lab/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

// fixedClock keeps ComputedAtMs deterministic across runs.
func fixedClock() time.Time {
	return time.UnixMilli(1700000000000).UTC()
}

// referenceMeasurement is a complete capture of a lean athletic male,
// 78.4 kg / 180 cm. The five Kerr components for this profile close to
// within 0.3% of body weight.
func referenceMeasurement() *domain.MeasurementInput {
	return &domain.MeasurementInput{
		MeasurementID: "meas-ref-001",
		SubjectID:     "subj-ref",
		TakenAtMs:     1700000000000,
		Sex:           domain.SexMale,
		AgeYears:      28,
		Activity:      domain.ActivityModerate,
		Objective:     domain.ObjectiveMaintain,
		WeightKG:      78.4,
		HeightCM:      180.0,

		SkinfoldTriceps:     ptr(5.0),
		SkinfoldBiceps:      ptr(3.5),
		SkinfoldSubscapular: ptr(6.0),
		SkinfoldSuprailiac:  ptr(7.0),
		SkinfoldSupraspinal: ptr(5.5),
		SkinfoldAbdominal:   ptr(9.0),
		SkinfoldThigh:       ptr(7.0),
		SkinfoldCalf:        ptr(5.0),

		GirthWaist:         ptr(81.5),
		GirthHip:           ptr(95.0),
		GirthArmRelaxed:    ptr(32.0),
		GirthArmFlexed:     ptr(34.0),
		GirthForearm:       ptr(27.8),
		GirthThorax:        ptr(100.5),
		GirthThighSuperior: ptr(59.0),
		GirthThighMedial:   ptr(56.5),
		GirthCalf:          ptr(37.8),

		DiameterBiacromial:            ptr(41.6),
		DiameterBiiliac:               ptr(28.5),
		DiameterHumeral:               ptr(7.1),
		DiameterFemoral:               ptr(9.9),
		DiameterThoraxTransverse:      ptr(29.5),
		DiameterThoraxAnteroposterior: ptr(19.5),
	}
}

func newTestCalculator() *Calculator {
	return NewCalculator(DefaultConfig).WithClock(fixedClock)
}

// wantField checks a nullable field against an expected value.
func wantField(t *testing.T, name string, got *float64, want, tol float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s: expected %v, got nil", name, want)
		return
	}
	if math.Abs(*got-want) > tol {
		t.Errorf("%s: expected %v, got %v", name, want, *got)
	}
}

func TestCompute_ReferenceCase(t *testing.T) {
	r, err := newTestCalculator().Compute(referenceMeasurement())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sums are exact arithmetic.
	wantField(t, "Sum4Skinfolds", r.Sum4Skinfolds, 21.5, 1e-9)
	wantField(t, "Sum6Skinfolds", r.Sum6Skinfolds, 37.5, 1e-9)
	wantField(t, "Sum3Skinfolds", r.Sum3Skinfolds, 16.5, 1e-9)
	wantField(t, "Sum8Skinfolds", r.Sum8Skinfolds, 48.0, 1e-9)

	// Durnin-Womersley male 20-29: 1.1631 - 0.0632*log10(21.5)
	wantField(t, "BodyDensity", r.BodyDensity, 1.07889, 1e-4)
	wantField(t, "BodyFatPct", r.BodyFatPct, 8.80493, 1e-4)
	wantField(t, "FatMassKG", r.FatMassKG, 6.90307, 1e-4)
	wantField(t, "LeanMassKG", r.LeanMassKG, 71.49693, 1e-4)

	// Kerr five components.
	wantField(t, "SkinMassKG", r.SkinMassKG, 4.09061, 1e-4)
	wantField(t, "AdiposeMassKG", r.AdiposeMassKG, 14.18428, 1e-4)
	wantField(t, "MuscleMassKG", r.MuscleMassKG, 41.39291, 1e-4)
	wantField(t, "BoneMassKG", r.BoneMassKG, 8.99144, 1e-4)
	wantField(t, "ResidualMassKG", r.ResidualMassKG, 9.57181, 1e-4)

	// Heath-Carter somatotype.
	wantField(t, "Endomorphy", r.Endomorphy, 1.38517, 1e-4)
	wantField(t, "Mesomorphy", r.Mesomorphy, 5.26500, 1e-4)
	wantField(t, "Ectomorphy", r.Ectomorphy, 2.20541, 1e-4)

	// Energy: Mifflin-St Jeor, moderate activity, maintain objective.
	wantField(t, "BMRKcal", r.BMRKcal, 1774.0, 1e-6)
	wantField(t, "MaintenanceKcal", r.MaintenanceKcal, 2749.7, 1e-6)
	wantField(t, "TargetKcal", r.TargetKcal, 2749.7, 1e-6)
	wantField(t, "ProteinG", r.ProteinG, 142.99387, 1e-4)
	wantField(t, "FatG", r.FatG, 76.38056, 1e-4)
	wantField(t, "CarbsG", r.CarbsG, 372.57488, 1e-4)

	if r.EngineVersion != EngineVersion {
		t.Errorf("expected engine version %s, got %s", EngineVersion, r.EngineVersion)
	}
	if r.InputFingerprint == "" {
		t.Error("expected non-empty input fingerprint")
	}
	if r.ComputedAtMs != 1700000000000 {
		t.Errorf("expected computed_at 1700000000000, got %d", r.ComputedAtMs)
	}
}

func TestCompute_ComponentSumInvariant(t *testing.T) {
	r, err := newTestCalculator().Compute(referenceMeasurement())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.ComponentSumKG == nil || r.ComponentSumDeviationPct == nil {
		t.Fatal("expected component sum for complete measurement")
	}

	sum := *r.MuscleMassKG + *r.AdiposeMassKG + *r.BoneMassKG + *r.ResidualMassKG + *r.SkinMassKG
	if math.Abs(*r.ComponentSumKG-sum) > 1e-9 {
		t.Errorf("stored component sum %v does not match recomputed %v", *r.ComponentSumKG, sum)
	}

	// Reference case closes well inside the ±2% tolerance.
	if dev := math.Abs(*r.ComponentSumDeviationPct); dev > 2.0 {
		t.Errorf("component sum deviation %.3f%% exceeds 2%%", dev)
	}
	if r.HasWarning(domain.WarningComponentSumMismatch) {
		t.Error("unexpected COMPONENT_SUM_MISMATCH for reference case")
	}

	// Percent fields must agree with the kg fields.
	wantField(t, "MuscleMassPct", r.MuscleMassPct, *r.MuscleMassKG/78.4*100, 1e-9)
	wantField(t, "SkinMassPct", r.SkinMassPct, *r.SkinMassKG/78.4*100, 1e-9)
}

func TestCompute_Idempotence(t *testing.T) {
	calc := newTestCalculator()
	m := referenceMeasurement()

	r1, err := calc.Compute(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := calc.Compute(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Bit-identical, not merely close.
	pairs := []struct {
		name string
		a, b *float64
	}{
		{"Sum4Skinfolds", r1.Sum4Skinfolds, r2.Sum4Skinfolds},
		{"BodyDensity", r1.BodyDensity, r2.BodyDensity},
		{"BodyFatPct", r1.BodyFatPct, r2.BodyFatPct},
		{"FatMassKG", r1.FatMassKG, r2.FatMassKG},
		{"LeanMassKG", r1.LeanMassKG, r2.LeanMassKG},
		{"MuscleMassKG", r1.MuscleMassKG, r2.MuscleMassKG},
		{"AdiposeMassKG", r1.AdiposeMassKG, r2.AdiposeMassKG},
		{"BoneMassKG", r1.BoneMassKG, r2.BoneMassKG},
		{"ResidualMassKG", r1.ResidualMassKG, r2.ResidualMassKG},
		{"SkinMassKG", r1.SkinMassKG, r2.SkinMassKG},
		{"Endomorphy", r1.Endomorphy, r2.Endomorphy},
		{"Mesomorphy", r1.Mesomorphy, r2.Mesomorphy},
		{"Ectomorphy", r1.Ectomorphy, r2.Ectomorphy},
		{"TargetKcal", r1.TargetKcal, r2.TargetKcal},
		{"ProteinG", r1.ProteinG, r2.ProteinG},
		{"CarbsG", r1.CarbsG, r2.CarbsG},
	}
	for _, p := range pairs {
		if (p.a == nil) != (p.b == nil) {
			t.Errorf("%s: nil mismatch between runs", p.name)
			continue
		}
		if p.a != nil && *p.a != *p.b {
			t.Errorf("%s: runs differ: %v vs %v", p.name, *p.a, *p.b)
		}
	}
	if r1.InputFingerprint != r2.InputFingerprint {
		t.Errorf("fingerprint differs between runs: %s vs %s", r1.InputFingerprint, r2.InputFingerprint)
	}
}

func TestCompute_MonotonicBodyFat(t *testing.T) {
	calc := newTestCalculator()

	lean := referenceMeasurement()
	fatter := referenceMeasurement()
	bump := func(p *float64) *float64 { v := *p + 5.0; return &v }
	fatter.SkinfoldTriceps = bump(fatter.SkinfoldTriceps)
	fatter.SkinfoldBiceps = bump(fatter.SkinfoldBiceps)
	fatter.SkinfoldSubscapular = bump(fatter.SkinfoldSubscapular)
	fatter.SkinfoldSuprailiac = bump(fatter.SkinfoldSuprailiac)
	fatter.SkinfoldSupraspinal = bump(fatter.SkinfoldSupraspinal)
	fatter.SkinfoldAbdominal = bump(fatter.SkinfoldAbdominal)
	fatter.SkinfoldThigh = bump(fatter.SkinfoldThigh)
	fatter.SkinfoldCalf = bump(fatter.SkinfoldCalf)

	rLean, err := calc.Compute(lean)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rFat, err := calc.Compute(fatter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Larger skinfolds: lower density, higher body fat.
	if *rFat.BodyDensity >= *rLean.BodyDensity {
		t.Errorf("expected density to decrease with skinfolds: %v >= %v", *rFat.BodyDensity, *rLean.BodyDensity)
	}
	if *rFat.BodyFatPct <= *rLean.BodyFatPct {
		t.Errorf("expected body fat to increase with skinfolds: %v <= %v", *rFat.BodyFatPct, *rLean.BodyFatPct)
	}
}

func TestCompute_NullPropagation_DensityChain(t *testing.T) {
	calc := newTestCalculator()

	// Omit each Durnin-Womersley site in turn; density and everything
	// downstream of it must be nil, never zero.
	clears := []struct {
		name  string
		clear func(*domain.MeasurementInput)
	}{
		{"triceps", func(m *domain.MeasurementInput) { m.SkinfoldTriceps = nil }},
		{"biceps", func(m *domain.MeasurementInput) { m.SkinfoldBiceps = nil }},
		{"subscapular", func(m *domain.MeasurementInput) { m.SkinfoldSubscapular = nil }},
		{"suprailiac", func(m *domain.MeasurementInput) { m.SkinfoldSuprailiac = nil }},
	}
	for _, c := range clears {
		m := referenceMeasurement()
		c.clear(m)

		r, err := calc.Compute(m)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if r.Sum4Skinfolds != nil {
			t.Errorf("%s: expected nil Sum4, got %v", c.name, *r.Sum4Skinfolds)
		}
		if r.BodyDensity != nil {
			t.Errorf("%s: expected nil density, got %v", c.name, *r.BodyDensity)
		}
		if r.BodyFatPct != nil {
			t.Errorf("%s: expected nil body fat, got %v", c.name, *r.BodyFatPct)
		}
		if r.FatMassKG != nil || r.LeanMassKG != nil {
			t.Errorf("%s: expected nil mass split", c.name)
		}
		if r.ProteinG != nil || r.CarbsG != nil {
			t.Errorf("%s: expected nil protein/carbs without lean mass", c.name)
		}
		// Fat grams depend only on target calories and stay available.
		if r.FatG == nil {
			t.Errorf("%s: expected fat grams despite missing lean mass", c.name)
		}
	}
}

func TestCompute_MinimalMeasurement(t *testing.T) {
	// Weight/height/sex/age only: everything optional-derived is nil, the
	// always-computable fields are present, and the summary warning fires.
	m := &domain.MeasurementInput{
		MeasurementID: "meas-minimal",
		SubjectID:     "subj-minimal",
		Sex:           domain.SexFemale,
		AgeYears:      34,
		WeightKG:      61.2,
		HeightCM:      165.0,
	}

	r, err := newTestCalculator().Compute(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, f := range map[string]*float64{
		"Sum4Skinfolds":  r.Sum4Skinfolds,
		"Sum6Skinfolds":  r.Sum6Skinfolds,
		"BodyDensity":    r.BodyDensity,
		"BodyFatPct":     r.BodyFatPct,
		"MuscleMassKG":   r.MuscleMassKG,
		"AdiposeMassKG":  r.AdiposeMassKG,
		"BoneMassKG":     r.BoneMassKG,
		"ResidualMassKG": r.ResidualMassKG,
		"Endomorphy":     r.Endomorphy,
		"Mesomorphy":     r.Mesomorphy,
		"ProteinG":       r.ProteinG,
		"CarbsG":         r.CarbsG,
	} {
		if f != nil {
			t.Errorf("%s: expected nil, got %v", name, *f)
		}
	}

	// Derivable from weight/height/sex/age alone.
	if r.SkinMassKG == nil {
		t.Error("expected skin mass for minimal measurement")
	}
	if r.Ectomorphy == nil {
		t.Error("expected ectomorphy for minimal measurement")
	}
	if r.BMRKcal == nil || r.MaintenanceKcal == nil || r.TargetKcal == nil {
		t.Error("expected energy targets for minimal measurement")
	}

	if !r.HasWarning(domain.WarningNoComputableOutput) {
		t.Error("expected NO_COMPUTABLE_OUTPUT warning")
	}
}

func TestCompute_MalformedInput(t *testing.T) {
	calc := newTestCalculator()

	cases := []struct {
		name   string
		mutate func(*domain.MeasurementInput)
	}{
		{"zero weight", func(m *domain.MeasurementInput) { m.WeightKG = 0 }},
		{"negative weight", func(m *domain.MeasurementInput) { m.WeightKG = -70 }},
		{"zero height", func(m *domain.MeasurementInput) { m.HeightCM = 0 }},
		{"negative height", func(m *domain.MeasurementInput) { m.HeightCM = -170 }},
		{"nan weight", func(m *domain.MeasurementInput) { m.WeightKG = math.NaN() }},
		{"inf height", func(m *domain.MeasurementInput) { m.HeightCM = math.Inf(1) }},
		{"negative age", func(m *domain.MeasurementInput) { m.AgeYears = -3 }},
		{"unknown sex", func(m *domain.MeasurementInput) { m.Sex = "OTHER" }},
		{"unknown activity", func(m *domain.MeasurementInput) { m.Activity = "EXTREME" }},
		{"unknown objective", func(m *domain.MeasurementInput) { m.Objective = "BULK" }},
		{"negative skinfold", func(m *domain.MeasurementInput) { m.SkinfoldTriceps = ptr(-1.0) }},
		{"nan girth", func(m *domain.MeasurementInput) { m.GirthWaist = ptr(math.NaN()) }},
		{"negative diameter", func(m *domain.MeasurementInput) { m.DiameterFemoral = ptr(-9.9) }},
	}
	for _, c := range cases {
		m := referenceMeasurement()
		c.mutate(m)

		r, err := calc.Compute(m)
		if err == nil {
			t.Errorf("%s: expected error, got result", c.name)
			continue
		}
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("%s: expected ErrMalformedInput, got %v", c.name, err)
		}
		if r != nil {
			t.Errorf("%s: expected no partial result", c.name)
		}
	}

	if _, err := calc.Compute(nil); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("nil measurement: expected ErrMalformedInput, got %v", err)
	}
}

func TestCompute_ZeroSkinfoldIsNotMissing(t *testing.T) {
	// Zero is a legal reading and must not be treated as absent.
	m := referenceMeasurement()
	m.SkinfoldBiceps = ptr(0.0)

	r, err := newTestCalculator().Compute(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Sum4 = 5.0 + 0.0 + 6.0 + 7.0
	wantField(t, "Sum4Skinfolds", r.Sum4Skinfolds, 18.0, 1e-9)
	if r.BodyDensity == nil {
		t.Error("expected density with zero-valued skinfold")
	}
}

func TestCompute_SuspiciousSkinfoldWarning(t *testing.T) {
	m := referenceMeasurement()
	m.SkinfoldAbdominal = ptr(63.5)

	r, err := newTestCalculator().Compute(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.HasWarning(domain.WarningSkinfoldSuspicious) {
		t.Error("expected SKINFOLD_SUSPICIOUS warning")
	}
	// The reading is still used, not rejected.
	if r.Sum6Skinfolds == nil {
		t.Error("expected Sum6 to include the suspicious reading")
	}
}

func TestCompute_AgeClampWarning(t *testing.T) {
	calc := newTestCalculator()

	young := referenceMeasurement()
	young.AgeYears = 14
	r, err := calc.Compute(young)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.HasWarning(domain.WarningAgeOutOfRange) {
		t.Error("expected AGE_OUT_OF_RANGE for age 14")
	}
	// Best-effort density from the clamped band, not nil.
	if r.BodyDensity == nil {
		t.Error("expected clamped density for age 14")
	}

	old := referenceMeasurement()
	old.AgeYears = 80
	r, err = calc.Compute(old)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.HasWarning(domain.WarningAgeOutOfRange) {
		t.Error("expected AGE_OUT_OF_RANGE for age 80")
	}

	inRange := referenceMeasurement()
	inRange.AgeYears = 45
	r, err = calc.Compute(inRange)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasWarning(domain.WarningAgeOutOfRange) {
		t.Error("unexpected AGE_OUT_OF_RANGE for age 45")
	}
}

func TestCompute_ConcurrentUse(t *testing.T) {
	calc := newTestCalculator()
	m := referenceMeasurement()

	want, err := calc.Compute(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const workers = 16
	results := make(chan *domain.CalculationResult, workers)
	for i := 0; i < workers; i++ {
		go func() {
			r, err := calc.Compute(referenceMeasurement())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results <- r
		}()
	}
	for i := 0; i < workers; i++ {
		r := <-results
		if r == nil {
			continue
		}
		if *r.BodyFatPct != *want.BodyFatPct {
			t.Errorf("concurrent run diverged: %v vs %v", *r.BodyFatPct, *want.BodyFatPct)
		}
	}
}

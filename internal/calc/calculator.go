package calc

import (
	"errors"
	"fmt"
	"math"
	"time"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/fingerprint"
)

// EngineVersion tags every result for reproducibility. Bump on any formula
// or coefficient change so stale results get recomputed.
const EngineVersion = "1.0.0"

// ErrMalformedInput is returned when a measurement is structurally invalid
// (non-finite or negative physical quantities, unknown enums). Missing
// optional sites are never malformed.
var ErrMalformedInput = errors.New("malformed measurement input")

// Calculator derives a CalculationResult from a MeasurementInput. It is
// pure and safe for concurrent use; identical inputs produce bit-identical
// numeric outputs.
type Calculator struct {
	cfg   Config
	clock func() time.Time
}

// NewCalculator creates a calculator with the given thresholds.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{
		cfg:   cfg,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for deterministic output.
func (c *Calculator) WithClock(clock func() time.Time) *Calculator {
	c.clock = clock
	return c
}

// Validate checks a measurement for structural validity. A failure here is
// a hard error: no formula can safely run on negative or non-finite
// physical quantities or an unknown sex.
func Validate(m *domain.MeasurementInput) error {
	if m == nil {
		return fmt.Errorf("nil measurement: %w", ErrMalformedInput)
	}
	if !isFinite(m.WeightKG) || m.WeightKG <= 0 {
		return fmt.Errorf("weight_kg must be a positive finite number, got %v: %w", m.WeightKG, ErrMalformedInput)
	}
	if !isFinite(m.HeightCM) || m.HeightCM <= 0 {
		return fmt.Errorf("height_cm must be a positive finite number, got %v: %w", m.HeightCM, ErrMalformedInput)
	}
	if !isFinite(m.AgeYears) || m.AgeYears < 0 {
		return fmt.Errorf("age_years must be a non-negative finite number, got %v: %w", m.AgeYears, ErrMalformedInput)
	}
	if !m.Sex.IsValid() {
		return fmt.Errorf("sex must be MALE or FEMALE, got %q: %w", m.Sex, ErrMalformedInput)
	}
	if m.Activity != "" && !m.Activity.IsValid() {
		return fmt.Errorf("unknown activity level %q: %w", m.Activity, ErrMalformedInput)
	}
	if m.Objective != "" && !m.Objective.IsValid() {
		return fmt.Errorf("unknown objective %q: %w", m.Objective, ErrMalformedInput)
	}
	for _, group := range [][]domain.NamedValue{m.Skinfolds(), m.Girths(), m.Diameters()} {
		for _, site := range group {
			if site.Value == nil {
				continue
			}
			if !isFinite(*site.Value) || *site.Value < 0 {
				return fmt.Errorf("%s must be a non-negative finite number, got %v: %w", site.Name, *site.Value, ErrMalformedInput)
			}
		}
	}
	return nil
}

// Compute runs the full pipeline: skinfold sums, density, body fat, mass
// split, fractionation, somatotype, energy targets. Missing optional sites
// null out the affected fields only; out-of-domain values are kept and
// flagged with warnings. Returns an error wrapping ErrMalformedInput for
// structurally invalid input, with no partial result.
func (c *Calculator) Compute(m *domain.MeasurementInput) (*domain.CalculationResult, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}

	r := &domain.CalculationResult{
		MeasurementID:    m.MeasurementID,
		SubjectID:        m.SubjectID,
		ComputedAtMs:     c.clock().UnixMilli(),
		EngineVersion:    EngineVersion,
		InputFingerprint: fingerprint.Measurement(m),
	}

	// Step 1: skinfold sums.
	r.Sum4Skinfolds = sumIfComplete(m.SkinfoldTriceps, m.SkinfoldBiceps, m.SkinfoldSubscapular, m.SkinfoldSuprailiac)
	r.Sum6Skinfolds = sumIfComplete(m.SkinfoldTriceps, m.SkinfoldSubscapular, m.SkinfoldSupraspinal,
		m.SkinfoldAbdominal, m.SkinfoldThigh, m.SkinfoldCalf)
	r.Sum3Skinfolds = sumIfComplete(m.SkinfoldTriceps, m.SkinfoldSubscapular, m.SkinfoldSupraspinal)
	r.Sum8Skinfolds = sumIfComplete(m.SkinfoldTriceps, m.SkinfoldBiceps, m.SkinfoldSubscapular, m.SkinfoldSuprailiac,
		m.SkinfoldSupraspinal, m.SkinfoldAbdominal, m.SkinfoldThigh, m.SkinfoldCalf)

	// Step 2: Durnin-Womersley density.
	r.BodyDensity = bodyDensity(m.Sex, m.AgeYears, r.Sum4Skinfolds)

	// Step 3: Siri body fat.
	r.BodyFatPct = siriBodyFat(r.BodyDensity)

	// Step 4: mass split.
	r.FatMassKG = fatMassKG(m.WeightKG, r.BodyFatPct)
	r.LeanMassKG = leanMassKG(m.WeightKG, r.FatMassKG)

	// Step 5: Kerr fractionation.
	frac := computeFractionation(m)
	r.MuscleMassKG = frac.MuscleKG
	r.AdiposeMassKG = frac.AdiposeKG
	r.BoneMassKG = frac.BoneKG
	r.ResidualMassKG = frac.ResidualKG
	r.SkinMassKG = frac.SkinKG
	r.MuscleMassPct = pctOfWeight(frac.MuscleKG, m.WeightKG)
	r.AdiposeMassPct = pctOfWeight(frac.AdiposeKG, m.WeightKG)
	r.BoneMassPct = pctOfWeight(frac.BoneKG, m.WeightKG)
	r.ResidualMassPct = pctOfWeight(frac.ResidualKG, m.WeightKG)
	r.SkinMassPct = pctOfWeight(frac.SkinKG, m.WeightKG)
	r.ComponentSumKG = frac.SumKG
	r.ComponentSumDeviationPct = frac.DeviationPct

	// Step 6: Heath-Carter somatotype.
	soma := computeSomatotype(m)
	r.Endomorphy = soma.Endomorphy
	r.Mesomorphy = soma.Mesomorphy
	r.Ectomorphy = soma.Ectomorphy

	// Step 7: energy and macro targets.
	energy := computeEnergyTargets(m, r.LeanMassKG)
	r.BMRKcal = energy.BMRKcal
	r.MaintenanceKcal = energy.MaintenanceKcal
	r.TargetKcal = energy.TargetKcal
	r.ProteinG = energy.ProteinG
	r.FatG = energy.FatG
	r.CarbsG = energy.CarbsG

	r.Warnings = c.collectWarnings(m, r)
	return r, nil
}

// collectWarnings evaluates the out-of-domain conditions against the
// computed result. Order is stable for deterministic output.
func (c *Calculator) collectWarnings(m *domain.MeasurementInput, r *domain.CalculationResult) []domain.Warning {
	var warnings []domain.Warning

	if m.AgeYears < c.cfg.AgeSupportedMin || m.AgeYears > c.cfg.AgeSupportedMax {
		warnings = append(warnings, domain.Warning{
			Code:  domain.WarningAgeOutOfRange,
			Field: "age_years",
			Message: fmt.Sprintf("age %.1f outside supported range [%.0f, %.0f], clamped to band %s",
				m.AgeYears, c.cfg.AgeSupportedMin, c.cfg.AgeSupportedMax, AgeBandLabel(m.AgeYears)),
		})
	}

	for _, site := range m.Skinfolds() {
		if site.Value != nil && *site.Value > c.cfg.SkinfoldSuspiciousMM {
			warnings = append(warnings, domain.Warning{
				Code:    domain.WarningSkinfoldSuspicious,
				Field:   site.Name,
				Message: fmt.Sprintf("%s reading %.1f mm exceeds %.0f mm", site.Name, *site.Value, c.cfg.SkinfoldSuspiciousMM),
			})
		}
	}

	if r.BodyFatPct != nil && (*r.BodyFatPct < c.cfg.BodyFatMinPct || *r.BodyFatPct > c.cfg.BodyFatMaxPct) {
		warnings = append(warnings, domain.Warning{
			Code:  domain.WarningBodyFatOutOfRange,
			Field: "body_fat_pct",
			Message: fmt.Sprintf("body fat %.1f%% outside plausible range [%.0f%%, %.0f%%]",
				*r.BodyFatPct, c.cfg.BodyFatMinPct, c.cfg.BodyFatMaxPct),
		})
	}

	if r.ComponentSumDeviationPct != nil && math.Abs(*r.ComponentSumDeviationPct) > c.cfg.ComponentSumTolerancePct {
		warnings = append(warnings, domain.Warning{
			Code:  domain.WarningComponentSumMismatch,
			Field: "component_sum_kg",
			Message: fmt.Sprintf("five-component sum %.2f kg deviates %.2f%% from weight %.2f kg (tolerance %.1f%%)",
				*r.ComponentSumKG, *r.ComponentSumDeviationPct, m.WeightKG, c.cfg.ComponentSumTolerancePct),
		})
	}

	if noComputableOutput(r) {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningNoComputableOutput,
			Message: "no skinfold, girth or diameter derived field could be computed",
		})
	}
	return warnings
}

// noComputableOutput reports whether every field that depends on optional
// sites is nil. Fields derivable from weight/height alone (skin mass,
// ectomorphy, calories) do not count.
func noComputableOutput(r *domain.CalculationResult) bool {
	optional := []*float64{
		r.Sum4Skinfolds, r.Sum6Skinfolds, r.Sum3Skinfolds, r.Sum8Skinfolds,
		r.BodyDensity, r.BodyFatPct, r.FatMassKG, r.LeanMassKG,
		r.MuscleMassKG, r.AdiposeMassKG, r.BoneMassKG, r.ResidualMassKG,
		r.Endomorphy, r.Mesomorphy,
	}
	for _, f := range optional {
		if f != nil {
			return false
		}
	}
	return true
}

// pctOfWeight converts a component mass to percent of body weight.
func pctOfWeight(massKG *float64, weightKG float64) *float64 {
	if massKG == nil {
		return nil
	}
	pct := *massKG / weightKG * 100.0
	return &pct
}

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

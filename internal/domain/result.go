package domain

// CalculationResult represents the derived body-composition values for one
// measurement. Corresponds to the calculation_results table in Postgres.
//
// A nil field means its inputs were incomplete, not that the value is zero.
// Results are recomputed wholesale whenever the backing measurement changes;
// individual fields are never patched.
type CalculationResult struct {
	MeasurementID string
	SubjectID     string

	// Skinfold sums (mm)
	Sum4Skinfolds *float64 // triceps+biceps+subscapular+suprailiac (Durnin-Womersley)
	Sum6Skinfolds *float64 // triceps+subscapular+supraspinal+abdominal+thigh+calf (ISAK)
	Sum3Skinfolds *float64 // triceps+subscapular+supraspinal (Heath-Carter)
	Sum8Skinfolds *float64 // full profile total

	// Density and fat
	BodyDensity *float64 // g/mL, Durnin-Womersley regression
	BodyFatPct  *float64 // Siri equation
	FatMassKG   *float64
	LeanMassKG  *float64

	// Five-component fractionation (Kerr), kg
	MuscleMassKG   *float64
	AdiposeMassKG  *float64
	BoneMassKG     *float64
	ResidualMassKG *float64
	SkinMassKG     *float64

	// Fractionation as % of body weight
	MuscleMassPct   *float64
	AdiposeMassPct  *float64
	BoneMassPct     *float64
	ResidualMassPct *float64
	SkinMassPct     *float64

	// Fractionation closure
	ComponentSumKG           *float64 // sum of the five components when all present
	ComponentSumDeviationPct *float64 // (sum - weight) / weight * 100

	// Somatotype (Heath-Carter)
	Endomorphy *float64
	Mesomorphy *float64
	Ectomorphy *float64 // floored at zero, never negative

	// Energy targets
	BMRKcal         *float64 // Mifflin-St Jeor
	MaintenanceKcal *float64 // BMR * activity factor
	TargetKcal      *float64 // maintenance adjusted by objective
	ProteinG        *float64
	FatG            *float64
	CarbsG          *float64

	// Metadata
	Warnings         []Warning
	ComputedAtMs     int64
	EngineVersion    string
	InputFingerprint string // fingerprint of the measurement at compute time
}

// HasWarning reports whether the result carries the given warning code.
func (r *CalculationResult) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy covering the pointer fields and the warning slice.
func (r *CalculationResult) Clone() *CalculationResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Sum4Skinfolds = clonePtr(r.Sum4Skinfolds)
	c.Sum6Skinfolds = clonePtr(r.Sum6Skinfolds)
	c.Sum3Skinfolds = clonePtr(r.Sum3Skinfolds)
	c.Sum8Skinfolds = clonePtr(r.Sum8Skinfolds)
	c.BodyDensity = clonePtr(r.BodyDensity)
	c.BodyFatPct = clonePtr(r.BodyFatPct)
	c.FatMassKG = clonePtr(r.FatMassKG)
	c.LeanMassKG = clonePtr(r.LeanMassKG)
	c.MuscleMassKG = clonePtr(r.MuscleMassKG)
	c.AdiposeMassKG = clonePtr(r.AdiposeMassKG)
	c.BoneMassKG = clonePtr(r.BoneMassKG)
	c.ResidualMassKG = clonePtr(r.ResidualMassKG)
	c.SkinMassKG = clonePtr(r.SkinMassKG)
	c.MuscleMassPct = clonePtr(r.MuscleMassPct)
	c.AdiposeMassPct = clonePtr(r.AdiposeMassPct)
	c.BoneMassPct = clonePtr(r.BoneMassPct)
	c.ResidualMassPct = clonePtr(r.ResidualMassPct)
	c.SkinMassPct = clonePtr(r.SkinMassPct)
	c.ComponentSumKG = clonePtr(r.ComponentSumKG)
	c.ComponentSumDeviationPct = clonePtr(r.ComponentSumDeviationPct)
	c.Endomorphy = clonePtr(r.Endomorphy)
	c.Mesomorphy = clonePtr(r.Mesomorphy)
	c.Ectomorphy = clonePtr(r.Ectomorphy)
	c.BMRKcal = clonePtr(r.BMRKcal)
	c.MaintenanceKcal = clonePtr(r.MaintenanceKcal)
	c.TargetKcal = clonePtr(r.TargetKcal)
	c.ProteinG = clonePtr(r.ProteinG)
	c.FatG = clonePtr(r.FatG)
	c.CarbsG = clonePtr(r.CarbsG)
	if r.Warnings != nil {
		c.Warnings = make([]Warning, len(r.Warnings))
		copy(c.Warnings, r.Warnings)
	}
	return &c
}

package domain

// CalculationHistoryEntry represents one computation appended to the
// calculation_history table in ClickHouse. History rows are never updated;
// recomputing a measurement appends a new entry, which preserves the
// trajectory between consultations.
type CalculationHistoryEntry struct {
	SubjectID     string
	MeasurementID string
	TakenAtMs     int64 // measurement capture time
	ComputedAtMs  int64

	WeightKG      float64
	BodyFatPct    *float64
	LeanMassKG    *float64
	MuscleMassKG  *float64
	Sum6Skinfolds *float64
	TargetKcal    *float64

	WarningCount  int
	EngineVersion string
}

// NewHistoryEntry derives the history row for one computation. Optional
// outputs are copied so the entry never aliases the result.
func NewHistoryEntry(m *MeasurementInput, r *CalculationResult) *CalculationHistoryEntry {
	return &CalculationHistoryEntry{
		SubjectID:     m.SubjectID,
		MeasurementID: m.MeasurementID,
		TakenAtMs:     m.TakenAtMs,
		ComputedAtMs:  r.ComputedAtMs,
		WeightKG:      m.WeightKG,
		BodyFatPct:    clonePtr(r.BodyFatPct),
		LeanMassKG:    clonePtr(r.LeanMassKG),
		MuscleMassKG:  clonePtr(r.MuscleMassKG),
		Sum6Skinfolds: clonePtr(r.Sum6Skinfolds),
		TargetKcal:    clonePtr(r.TargetKcal),
		WarningCount:  len(r.Warnings),
		EngineVersion: r.EngineVersion,
	}
}

// Clone returns a deep copy of the entry.
func (e *CalculationHistoryEntry) Clone() *CalculationHistoryEntry {
	if e == nil {
		return nil
	}
	c := *e
	c.BodyFatPct = clonePtr(e.BodyFatPct)
	c.LeanMassKG = clonePtr(e.LeanMassKG)
	c.MuscleMassKG = clonePtr(e.MuscleMassKG)
	c.Sum6Skinfolds = clonePtr(e.Sum6Skinfolds)
	c.TargetKcal = clonePtr(e.TargetKcal)
	return &c
}

package domain

// CohortAggregate represents descriptive statistics over computed results for
// one (sex, objective) cohort. Corresponds to the cohort_aggregates table.
// Aggregates are append-only; each run inserts a new row.
type CohortAggregate struct {
	Sex           Sex
	Objective     Objective
	GeneratedAtMs int64

	// Counts
	TotalMeasurements     int
	TotalSubjects         int // unique subject_id count
	BodyFatComputable     int // results with non-nil body fat
	FractionationComplete int // results with all five components
	SomatotypeComplete    int // results with all three components
	WithWarnings          int

	// Body fat distribution (%)
	BodyFatMean   float64
	BodyFatMedian float64
	BodyFatP10    float64
	BodyFatP25    float64
	BodyFatP75    float64
	BodyFatP90    float64
	BodyFatMin    float64
	BodyFatMax    float64
	BodyFatStddev float64

	// Mass means (kg)
	WeightMean     float64
	LeanMassMean   *float64 // nil when no result had lean mass
	MuscleMassMean *float64

	// Somatotype means
	EndomorphyMean *float64
	MesomorphyMean *float64
	EctomorphyMean *float64

	// Warning breakdown
	AgeOutOfRangeCount        int
	BodyFatOutOfRangeCount    int
	ComponentSumMismatchCount int
	SkinfoldSuspiciousCount   int
}

// Clone returns a deep copy of the aggregate.
func (a *CohortAggregate) Clone() *CohortAggregate {
	if a == nil {
		return nil
	}
	c := *a
	c.LeanMassMean = clonePtr(a.LeanMassMean)
	c.MuscleMassMean = clonePtr(a.MuscleMassMean)
	c.EndomorphyMean = clonePtr(a.EndomorphyMean)
	c.MesomorphyMean = clonePtr(a.MesomorphyMean)
	c.EctomorphyMean = clonePtr(a.EctomorphyMean)
	return &c
}

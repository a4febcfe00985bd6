package reporting

import "time"

// Report represents the cohort report structure.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	EngineVersion string
	DataVersion   string // sha256 over the input dataset; set by the pipeline, empty otherwise

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks and integrity errors, filled by the pipeline)
	DataQuality DataQualitySection

	// Reproducibility (filled by the pipeline; zero for reports generated
	// from stores alone)
	Reproducibility ReproducibilityMetadata

	// Cohort statistics (sorted by sex, objective; latest snapshot per cohort)
	CohortMetrics []CohortMetricRow

	// Subject progress (sorted by subject_id; empty without a history store)
	SubjectProgress []SubjectProgressRow

	// Warning breakdown (sorted by code)
	WarningBreakdown []WarningBreakdownRow

	// Needs-review list (sorted by subject_id, measurement_id)
	NeedsReview []NeedsReviewRow
}

// ReproducibilityMetadata identifies the code and command behind a report.
// GeneratedAt, EngineVersion and DataVersion live on the Report itself.
type ReproducibilityMetadata struct {
	GeneratorVersion string
	CommitHash       string
	RerunCommand     string
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSummary contains data description.
type DataSummary struct {
	TotalSubjects       int
	TotalMeasurements   int
	TotalResults        int
	BodyFatComputable   int // results with non-nil body fat
	ResultsWithWarnings int
	DateRangeStart      int64 // earliest taken_at, Unix ms
	DateRangeEnd        int64 // latest taken_at, Unix ms
}

// CohortMetricRow represents one row in the cohort statistics table,
// taken from the latest aggregate snapshot of that cohort.
type CohortMetricRow struct {
	Sex       string
	Objective string

	TotalMeasurements int
	TotalSubjects     int
	BodyFatComputable int
	WithWarnings      int

	BodyFatMean   float64
	BodyFatMedian float64
	BodyFatP10    float64
	BodyFatP25    float64
	BodyFatP75    float64
	BodyFatP90    float64
	BodyFatMin    float64
	BodyFatMax    float64
	BodyFatStddev float64

	WeightMean     float64
	LeanMassMean   *float64
	MuscleMassMean *float64

	EndomorphyMean *float64
	MesomorphyMean *float64
	EctomorphyMean *float64
}

// SubjectProgressRow tracks one subject's trajectory from the calculation
// history: where they stand now, the change since the previous measurement,
// and the change over the trailing 30 days.
type SubjectProgressRow struct {
	SubjectID    string
	Measurements int // distinct measurements in history

	LastMeasurementID string
	LastTakenAtMs     int64
	LastWeightKG      float64
	LastBodyFatPct    *float64

	// Change since the previous measurement
	WeightDeltaKG   float64
	BodyFatDeltaPct *float64 // nil when either endpoint lacks body fat

	// Change against the state as of 30 days before the last capture;
	// nil when history does not reach back that far
	Weight30dDeltaKG   *float64
	BodyFat30dDeltaPct *float64
}

// WarningBreakdownRow counts one warning code across all results.
type WarningBreakdownRow struct {
	Code         string
	Occurrences  int // total warnings with this code
	Measurements int // measurements carrying at least one
}

// NeedsReviewRow lists one measurement flagged for manual review.
type NeedsReviewRow struct {
	SubjectID       string
	MeasurementID   string
	FlaggedCriteria []string
}

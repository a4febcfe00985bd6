package reporting

import (
	"context"
	"errors"
	"sort"
	"time"

	"bodycomp-lab/internal/analytics"
	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/review"
	"bodycomp-lab/internal/storage"
)

// progressWindowMs is the trailing window for the report's trend columns.
const progressWindowMs = int64(30 * 24 * time.Hour / time.Millisecond)

// Generator produces reports from stored data.
type Generator struct {
	measurementStore storage.MeasurementStore
	resultStore      storage.ResultStore
	aggregateStore   storage.CohortAggregateStore
	historyStore     storage.ResultHistoryStore // optional; enables subject progress
	evaluator        *review.Evaluator
	now              func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	measurementStore storage.MeasurementStore,
	resultStore storage.ResultStore,
	aggStore storage.CohortAggregateStore,
) *Generator {
	return &Generator{
		measurementStore: measurementStore,
		resultStore:      resultStore,
		aggregateStore:   aggStore,
		evaluator:        review.NewEvaluator(calc.DefaultConfig),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithHistory attaches the calculation history that feeds the subject
// progress section. Reports generated without it omit the section.
func (g *Generator) WithHistory(historyStore storage.ResultHistoryStore) *Generator {
	g.historyStore = historyStore
	return g
}

// WithReviewConfig sets the thresholds behind the needs-review checklist.
// The checklist should run with the thresholds the engine computed with;
// the default is calc.DefaultConfig.
func (g *Generator) WithReviewConfig(cfg calc.Config) *Generator {
	g.evaluator = review.NewEvaluator(cfg)
	return g
}

// Generate produces a complete cohort report. The data quality section is
// left empty; the pipeline fills it from its own sufficiency and integrity
// passes. Subject progress is empty unless a history store is attached.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	measurements, err := g.measurementStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	results, err := g.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	cohortMetrics, err := g.generateCohortMetrics(ctx)
	if err != nil {
		return nil, err
	}

	subjectProgress, err := g.generateSubjectProgress(ctx, measurements)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:      g.now(),
		EngineVersion:    calc.EngineVersion,
		DataSummary:      generateDataSummary(measurements, results),
		CohortMetrics:    cohortMetrics,
		SubjectProgress:  subjectProgress,
		WarningBreakdown: generateWarningBreakdown(results),
		NeedsReview:      g.generateNeedsReview(measurements, results),
	}, nil
}

// generateDataSummary computes the data summary from measurements and results.
func generateDataSummary(measurements []*domain.MeasurementInput, results []*domain.CalculationResult) DataSummary {
	subjects := make(map[string]struct{})
	var dateRangeStart, dateRangeEnd int64
	for i, m := range measurements {
		subjects[m.SubjectID] = struct{}{}
		if i == 0 || m.TakenAtMs < dateRangeStart {
			dateRangeStart = m.TakenAtMs
		}
		if i == 0 || m.TakenAtMs > dateRangeEnd {
			dateRangeEnd = m.TakenAtMs
		}
	}

	bodyFatComputable := 0
	withWarnings := 0
	for _, r := range results {
		if r.BodyFatPct != nil {
			bodyFatComputable++
		}
		if len(r.Warnings) > 0 {
			withWarnings++
		}
	}

	return DataSummary{
		TotalSubjects:       len(subjects),
		TotalMeasurements:   len(measurements),
		TotalResults:        len(results),
		BodyFatComputable:   bodyFatComputable,
		ResultsWithWarnings: withWarnings,
		DateRangeStart:      dateRangeStart,
		DateRangeEnd:        dateRangeEnd,
	}
}

// generateCohortMetrics loads the latest aggregate snapshot per cohort.
// Cohorts with no snapshot are omitted rather than shown as zero rows.
func (g *Generator) generateCohortMetrics(ctx context.Context) ([]CohortMetricRow, error) {
	var rows []CohortMetricRow
	for _, sex := range []domain.Sex{domain.SexFemale, domain.SexMale} {
		for _, objective := range []domain.Objective{domain.ObjectiveGain, domain.ObjectiveLoss, domain.ObjectiveMaintain} {
			agg, err := g.aggregateStore.GetLatest(ctx, sex, objective)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return nil, err
			}
			rows = append(rows, CohortMetricRow{
				Sex:               string(agg.Sex),
				Objective:         string(agg.Objective),
				TotalMeasurements: agg.TotalMeasurements,
				TotalSubjects:     agg.TotalSubjects,
				BodyFatComputable: agg.BodyFatComputable,
				WithWarnings:      agg.WithWarnings,
				BodyFatMean:       agg.BodyFatMean,
				BodyFatMedian:     agg.BodyFatMedian,
				BodyFatP10:        agg.BodyFatP10,
				BodyFatP25:        agg.BodyFatP25,
				BodyFatP75:        agg.BodyFatP75,
				BodyFatP90:        agg.BodyFatP90,
				BodyFatMin:        agg.BodyFatMin,
				BodyFatMax:        agg.BodyFatMax,
				BodyFatStddev:     agg.BodyFatStddev,
				WeightMean:        agg.WeightMean,
				LeanMassMean:      agg.LeanMassMean,
				MuscleMassMean:    agg.MuscleMassMean,
				EndomorphyMean:    agg.EndomorphyMean,
				MesomorphyMean:    agg.MesomorphyMean,
				EctomorphyMean:    agg.EctomorphyMean,
			})
		}
	}

	// Sort by (sex, objective)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Sex != rows[j].Sex {
			return rows[i].Sex < rows[j].Sex
		}
		return rows[i].Objective < rows[j].Objective
	})

	return rows, nil
}

// generateSubjectProgress builds one trajectory row per subject with at
// least two measurements in history. Subjects come from the live
// measurement set, so deleted subjects never resurface through their
// append-only history.
func (g *Generator) generateSubjectProgress(ctx context.Context, measurements []*domain.MeasurementInput) ([]SubjectProgressRow, error) {
	if g.historyStore == nil {
		return nil, nil
	}

	subjects := make(map[string]struct{}, len(measurements))
	for _, m := range measurements {
		subjects[m.SubjectID] = struct{}{}
	}
	ids := make([]string, 0, len(subjects))
	for id := range subjects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rows []SubjectProgressRow
	for _, subjectID := range ids {
		entries, err := g.historyStore.GetBySubject(ctx, subjectID)
		if err != nil {
			return nil, err
		}

		delta, err := analytics.LatestDelta(entries)
		if err != nil {
			if errors.Is(err, analytics.ErrNoHistory) || errors.Is(err, analytics.ErrInsufficientHistory) {
				continue
			}
			return nil, err
		}

		latest, err := analytics.EntryAt(delta.ToTakenAtMs, entries)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			continue
		}

		row := SubjectProgressRow{
			SubjectID:         subjectID,
			Measurements:      countDistinctMeasurements(entries),
			LastMeasurementID: delta.ToMeasurementID,
			LastTakenAtMs:     delta.ToTakenAtMs,
			LastWeightKG:      latest.WeightKG,
			LastBodyFatPct:    latest.BodyFatPct,
			WeightDeltaKG:     delta.WeightDeltaKG,
			BodyFatDeltaPct:   delta.BodyFatDeltaPct,
		}

		windowStart := delta.ToTakenAtMs - progressWindowMs
		weightThen, err := analytics.WeightAt(windowStart, entries)
		if err != nil {
			return nil, err
		}
		if weightThen != nil {
			d := latest.WeightKG - *weightThen
			row.Weight30dDeltaKG = &d
		}
		bodyFatThen, err := analytics.BodyFatAt(windowStart, entries)
		if err != nil {
			return nil, err
		}
		if bodyFatThen != nil && latest.BodyFatPct != nil {
			d := *latest.BodyFatPct - *bodyFatThen
			row.BodyFat30dDeltaPct = &d
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// countDistinctMeasurements counts measurements in a history slice.
// Recomputations append rows, so raw length overcounts.
func countDistinctMeasurements(entries []*domain.CalculationHistoryEntry) int {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.MeasurementID] = struct{}{}
	}
	return len(seen)
}

// generateWarningBreakdown counts warnings per code across all results.
func generateWarningBreakdown(results []*domain.CalculationResult) []WarningBreakdownRow {
	occurrences := make(map[string]int)
	measurements := make(map[string]map[string]struct{})

	for _, r := range results {
		for _, w := range r.Warnings {
			code := string(w.Code)
			occurrences[code]++
			if measurements[code] == nil {
				measurements[code] = make(map[string]struct{})
			}
			measurements[code][r.MeasurementID] = struct{}{}
		}
	}

	rows := make([]WarningBreakdownRow, 0, len(occurrences))
	for code, count := range occurrences {
		rows = append(rows, WarningBreakdownRow{
			Code:         code,
			Occurrences:  count,
			Measurements: len(measurements[code]),
		})
	}

	// Sort by code
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Code < rows[j].Code
	})

	return rows
}

// generateNeedsReview runs the review checklist over every measurement that
// has a result and collects the flagged ones.
func (g *Generator) generateNeedsReview(measurements []*domain.MeasurementInput, results []*domain.CalculationResult) []NeedsReviewRow {
	byMeasurement := make(map[string]*domain.CalculationResult, len(results))
	for _, r := range results {
		byMeasurement[r.MeasurementID] = r
	}

	var rows []NeedsReviewRow
	for _, m := range measurements {
		r, ok := byMeasurement[m.MeasurementID]
		if !ok {
			continue
		}
		verdict := g.evaluator.Evaluate(m, r)
		if verdict.Verdict != review.VerdictNeedsReview {
			continue
		}
		rows = append(rows, NeedsReviewRow{
			SubjectID:       m.SubjectID,
			MeasurementID:   m.MeasurementID,
			FlaggedCriteria: verdict.FlaggedCriteria(),
		})
	}

	// Sort by (subject_id, measurement_id)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SubjectID != rows[j].SubjectID {
			return rows[i].SubjectID < rows[j].SubjectID
		}
		return rows[i].MeasurementID < rows[j].MeasurementID
	})

	return rows
}

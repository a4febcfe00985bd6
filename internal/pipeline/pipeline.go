// Package pipeline implements the batch reporting flow: data sufficiency
// checks, compute-all, cohort aggregation, recompute verification, then
// report and CSV artifacts on disk.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bodycomp-lab/internal/analytics"
	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/fingerprint"
	"bodycomp-lab/internal/observability"
	"bodycomp-lab/internal/reporting"
	"bodycomp-lab/internal/storage"
	"bodycomp-lab/internal/verification"
)

// GeneratorVersion tags report output for reproducibility. Bump on any
// change to the pipeline phases or the report layout.
const GeneratorVersion = "1.0.0"

// Pipeline runs the batch reporting flow over the stores it is given.
type Pipeline struct {
	measurementStore storage.MeasurementStore
	resultStore      storage.ResultStore
	historyStore     storage.ResultHistoryStore
	aggregateStore   storage.CohortAggregateStore

	reportGen  *reporting.Generator
	calculator *calc.Calculator
	checker    *SufficiencyChecker
	verifier   verification.Verifier

	outputDir       string
	clock           func() time.Time
	integrityErrors []string // extra integrity errors merged into the report
	dataSource      string   // "fixtures" or "db" for the rerun command
	postgresDSN     string
	clickhouseDSN   string
}

// NewPipeline creates a pipeline over the given stores.
func NewPipeline(
	measurementStore storage.MeasurementStore,
	resultStore storage.ResultStore,
	historyStore storage.ResultHistoryStore,
	aggregateStore storage.CohortAggregateStore,
	outputDir string,
) *Pipeline {
	calculator := calc.NewCalculator(calc.DefaultConfig)
	return &Pipeline{
		measurementStore: measurementStore,
		resultStore:      resultStore,
		historyStore:     historyStore,
		aggregateStore:   aggregateStore,
		reportGen:        reporting.NewGenerator(measurementStore, resultStore, aggregateStore).WithHistory(historyStore),
		calculator:       calculator,
		checker:          NewSufficiencyChecker(measurementStore),
		verifier: verification.NewRecomputeVerifier(verification.RecomputeVerifierOptions{
			ResultStore:      resultStore,
			MeasurementStore: measurementStore,
			Calculator:       calculator,
		}),
		outputDir: outputDir,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for deterministic output. The clock feeds
// the calculator, the aggregate stamps and the report header.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	p.calculator = p.calculator.WithClock(clock)
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithCalcConfig replaces the engine thresholds for the run. The
// calculator, the recompute verifier and the report's review gate all
// follow, so the run stays internally consistent.
func (p *Pipeline) WithCalcConfig(cfg calc.Config) *Pipeline {
	p.calculator = calc.NewCalculator(cfg).WithClock(p.clock)
	p.verifier = verification.NewRecomputeVerifier(verification.RecomputeVerifierOptions{
		ResultStore:      p.resultStore,
		MeasurementStore: p.measurementStore,
		Calculator:       p.calculator,
	})
	p.reportGen = p.reportGen.WithReviewConfig(cfg)
	return p
}

// WithIntegrityErrors merges additional integrity errors into the report's
// data quality section (e.g. collected during an earlier backfill).
func (p *Pipeline) WithIntegrityErrors(errs []string) *Pipeline {
	p.integrityErrors = append(p.integrityErrors, errs...)
	return p
}

// WithDataSource sets the data source label for the rerun command. Use
// "fixtures" for fixture mode; for DB mode use WithDBSource.
func (p *Pipeline) WithDataSource(source string) *Pipeline {
	p.dataSource = source
	return p
}

// WithDBSource sets the data source to DB mode with the DSNs recorded in
// the rerun command.
func (p *Pipeline) WithDBSource(postgresDSN, clickhouseDSN string) *Pipeline {
	p.dataSource = "db"
	p.postgresDSN = postgresDSN
	p.clickhouseDSN = clickhouseDSN
	return p
}

// Run executes the full pipeline and writes output files:
// - REPORT.md
// - results.csv
// - cohort_aggregates.csv
// Failed sufficiency checks do not abort the run; the report carries the
// failed rows and marks the cohort statistics provisional.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return err
	}

	// 1. Sufficiency checks over the raw measurement set.
	phaseStart := time.Now()
	suffResult, err := p.checker.Check(ctx)
	observability.RecordPipelineRun("sufficiency", statusOf(err), time.Since(phaseStart).Seconds())
	if err != nil {
		return fmt.Errorf("phase 1 (sufficiency) failed: %w", err)
	}
	dataQuality := convertToDataQuality(suffResult)

	// 2. Compute results for stale or missing rows.
	phaseStart = time.Now()
	computeErrs, err := p.computeAll(ctx)
	observability.RecordPipelineRun("compute", statusOf(err), time.Since(phaseStart).Seconds())
	if err != nil {
		return fmt.Errorf("phase 2 (compute) failed: %w", err)
	}
	p.integrityErrors = append(p.integrityErrors, computeErrs...)

	// 3. Cohort aggregation per sex and objective.
	phaseStart = time.Now()
	aggErrs, err := p.aggregateAll(ctx)
	observability.RecordPipelineRun("aggregate", statusOf(err), time.Since(phaseStart).Seconds())
	if err != nil {
		return fmt.Errorf("phase 3 (aggregation) failed: %w", err)
	}
	p.integrityErrors = append(p.integrityErrors, aggErrs...)

	// 4. Recompute verification over every stored result.
	phaseStart = time.Now()
	verifyErrs, err := p.verifyAll(ctx)
	observability.RecordPipelineRun("verify", statusOf(err), time.Since(phaseStart).Seconds())
	if err != nil {
		return fmt.Errorf("phase 4 (verification) failed: %w", err)
	}
	p.integrityErrors = append(p.integrityErrors, verifyErrs...)

	// Integrity errors from any phase fail the data quality gate.
	if len(p.integrityErrors) > 0 {
		dataQuality.IntegrityErrors = append(dataQuality.IntegrityErrors, p.integrityErrors...)
		dataQuality.AllChecksPassed = false
	}

	// 5. Generate the report and write output files.
	phaseStart = time.Now()
	err = p.writeOutputs(ctx, dataQuality)
	observability.RecordPipelineRun("report", statusOf(err), time.Since(phaseStart).Seconds())
	if err != nil {
		return fmt.Errorf("phase 5 (report) failed: %w", err)
	}

	return nil
}

// computeAll recomputes results for stale or missing rows. Fresh rows are
// left untouched so repeated runs do not spam the history log.
func (p *Pipeline) computeAll(ctx context.Context) ([]string, error) {
	measurements, err := p.measurementStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	// Sort by ID for deterministic output
	sorted := make([]*domain.MeasurementInput, len(measurements))
	copy(sorted, measurements)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MeasurementID < sorted[j].MeasurementID
	})

	var errs []string
	for _, m := range sorted {
		stored, err := p.resultStore.GetByMeasurementID(ctx, m.MeasurementID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if !fingerprint.Stale(m, stored, calc.EngineVersion) {
			continue
		}

		fresh, err := p.calculator.Compute(m)
		if err != nil {
			errs = append(errs, fmt.Sprintf("compute failed for measurement %s: %v", m.MeasurementID, err))
			continue
		}
		if err := p.resultStore.Upsert(ctx, fresh); err != nil {
			return nil, err
		}
		entry := domain.NewHistoryEntry(m, fresh)
		if err := p.historyStore.Append(ctx, []*domain.CalculationHistoryEntry{entry}); err != nil {
			return nil, err
		}
		observability.RecordResultComputed("pipeline")
	}

	return errs, nil
}

// aggregateAll snapshots each non-empty cohort at one shared stamp.
func (p *Pipeline) aggregateAll(ctx context.Context) ([]string, error) {
	aggregator := analytics.NewAggregator(p.resultStore, p.measurementStore, p.aggregateStore)
	generatedAt := p.clock().UnixMilli()

	for _, sex := range []domain.Sex{domain.SexMale, domain.SexFemale} {
		for _, objective := range []domain.Objective{domain.ObjectiveLoss, domain.ObjectiveGain, domain.ObjectiveMaintain} {
			_, err := aggregator.ComputeAndStore(ctx, sex, objective, generatedAt)
			if err != nil {
				// Skip empty cohorts (expected for some combinations)
				if errors.Is(err, analytics.ErrNoResults) {
					continue
				}
				// Skip duplicate key errors (already aggregated at this stamp)
				if errors.Is(err, storage.ErrDuplicateKey) {
					continue
				}
				return nil, err
			}
			observability.RecordAggregateComputed()
		}
	}

	return aggregator.GetMissingMeasurementErrors(), nil
}

// verifyAll recomputes every stored result and reports field drift. A
// divergence means a stored row no longer matches what the engine produces
// for its measurement.
func (p *Pipeline) verifyAll(ctx context.Context) ([]string, error) {
	report, err := p.verifier.VerifyAll(ctx)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, r := range report.Results {
		if r.Match {
			continue
		}
		for _, d := range r.Divergences {
			if d.Field == "error" {
				errs = append(errs, fmt.Sprintf("result %s failed verification: %v", r.MeasurementID, d.Actual))
				continue
			}
			errs = append(errs, fmt.Sprintf("result %s diverged on %s", r.MeasurementID, d.Field))
		}
	}
	// Sort for deterministic output
	sort.Strings(errs)

	return errs, nil
}

// writeOutputs renders the report and CSV artifacts into the output dir.
func (p *Pipeline) writeOutputs(ctx context.Context, dataQuality reporting.DataQualitySection) error {
	report, err := p.reportGen.Generate(ctx)
	if err != nil {
		return err
	}
	report.DataQuality = dataQuality

	measurements, err := p.measurementStore.GetAll(ctx)
	if err != nil {
		return err
	}
	report.DataVersion = computeDataVersion(measurements)
	report.Reproducibility = reporting.ReproducibilityMetadata{
		GeneratorVersion: GeneratorVersion,
		CommitHash:       getGitCommitHash(),
		RerunCommand:     p.buildRerunCommand(),
	}

	reportMD := reporting.RenderMarkdown(report)
	if err := os.WriteFile(filepath.Join(p.outputDir, "REPORT.md"), []byte(reportMD), 0644); err != nil {
		return err
	}

	results, err := p.resultStore.GetAll(ctx)
	if err != nil {
		return err
	}
	resultsCSV := reporting.RenderResultsCSV(results)
	if err := os.WriteFile(filepath.Join(p.outputDir, "results.csv"), []byte(resultsCSV), 0644); err != nil {
		return err
	}

	aggregates, err := p.aggregateStore.GetAll(ctx)
	if err != nil {
		return err
	}
	aggCSV := reporting.RenderAggregatesCSV(aggregates)
	if err := os.WriteFile(filepath.Join(p.outputDir, "cohort_aggregates.csv"), []byte(aggCSV), 0644); err != nil {
		return err
	}

	observability.RecordReportGenerated()
	return nil
}

// buildRerunCommand returns the command that reproduces this report.
func (p *Pipeline) buildRerunCommand() string {
	switch p.dataSource {
	case "db":
		return fmt.Sprintf("go run cmd/pipeline/main.go --postgres-dsn %q --clickhouse-dsn %q",
			p.postgresDSN, p.clickhouseDSN)
	default:
		return "go run cmd/pipeline/main.go --use-fixtures"
	}
}

// computeDataVersion hashes the measurement set for reproducibility. Two
// reports with the same data version were generated from identical inputs.
func computeDataVersion(measurements []*domain.MeasurementInput) string {
	h := sha256.New()

	parts := make([]string, 0, len(measurements))
	for _, m := range measurements {
		parts = append(parts, fmt.Sprintf("%s|%s", m.MeasurementID, fingerprint.Measurement(m)))
	}
	sort.Strings(parts)
	h.Write([]byte("MEASUREMENTS\n"))
	h.Write([]byte(strings.Join(parts, "\n")))

	return hex.EncodeToString(h.Sum(nil))[:12] // short hash
}

// getGitCommitHash returns the current git commit hash or "unknown" when
// not in a git repo.
func getGitCommitHash() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}

// convertToDataQuality converts a SufficiencyResult to the report section.
func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	checks := make([]reporting.SufficiencyCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataQualitySection{
		SufficiencyChecks: checks,
		IntegrityErrors:   result.Errors,
		AllChecksPassed:   result.AllPass,
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

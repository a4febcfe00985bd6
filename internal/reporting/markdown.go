package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Body Composition Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Engine: %s", r.EngineVersion))
	if r.DataVersion != "" {
		sb.WriteString(fmt.Sprintf(" | Dataset: %s", r.DataVersion))
	}
	sb.WriteString("\n\n")

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Subjects | %d |\n", r.DataSummary.TotalSubjects))
	sb.WriteString(fmt.Sprintf("| Measurements | %d |\n", r.DataSummary.TotalMeasurements))
	sb.WriteString(fmt.Sprintf("| Results | %d |\n", r.DataSummary.TotalResults))
	sb.WriteString(fmt.Sprintf("| Body Fat Computable | %d |\n", r.DataSummary.BodyFatComputable))
	sb.WriteString(fmt.Sprintf("| Results With Warnings | %d |\n", r.DataSummary.ResultsWithWarnings))
	sb.WriteString(fmt.Sprintf("| Date Range Start (ms) | %d |\n", r.DataSummary.DateRangeStart))
	sb.WriteString(fmt.Sprintf("| Date Range End (ms) | %d |\n", r.DataSummary.DateRangeEnd))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		// Overall status
		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Cohort statistics are provisional.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Integrity errors (always shown if present, even without sufficiency checks)
	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Cohort Statistics
	sb.WriteString("## Cohort Statistics\n\n")
	if len(r.CohortMetrics) > 0 {
		sb.WriteString("| Sex | Objective | N | Subjects | BF Computable | BF Mean | Median | P10 | P90 | Min | Max | Stddev | Weight Mean |\n")
		sb.WriteString("|-----|-----------|---|----------|---------------|---------|--------|-----|-----|-----|-----|--------|-------------|\n")
		for _, c := range r.CohortMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f | %.2f | %.1f |\n",
				c.Sex, c.Objective, c.TotalMeasurements, c.TotalSubjects, c.BodyFatComputable,
				c.BodyFatMean, c.BodyFatMedian, c.BodyFatP10, c.BodyFatP90,
				c.BodyFatMin, c.BodyFatMax, c.BodyFatStddev, c.WeightMean))
		}
		sb.WriteString("\n")

		sb.WriteString("### Composition Means\n\n")
		sb.WriteString("| Sex | Objective | Lean Mass (kg) | Muscle Mass (kg) | Endo | Meso | Ecto |\n")
		sb.WriteString("|-----|-----------|----------------|------------------|------|------|------|\n")
		for _, c := range r.CohortMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
				c.Sex, c.Objective,
				fmtPtr(c.LeanMassMean, "%.1f"), fmtPtr(c.MuscleMassMean, "%.1f"),
				fmtPtr(c.EndomorphyMean, "%.2f"), fmtPtr(c.MesomorphyMean, "%.2f"), fmtPtr(c.EctomorphyMean, "%.2f")))
		}
	} else {
		sb.WriteString("No cohort statistics available.\n")
	}
	sb.WriteString("\n")

	// Subject Progress
	sb.WriteString("## Subject Progress\n\n")
	if len(r.SubjectProgress) > 0 {
		sb.WriteString("| Subject | Captures | Last Taken (ms) | Weight (kg) | BF % | Weight Delta | BF Delta | Weight 30d | BF 30d |\n")
		sb.WriteString("|---------|----------|-----------------|-------------|------|--------------|----------|------------|--------|\n")
		for _, p := range r.SubjectProgress {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f | %s | %+.1f | %s | %s | %s |\n",
				p.SubjectID, p.Measurements, p.LastTakenAtMs, p.LastWeightKG,
				fmtPtr(p.LastBodyFatPct, "%.1f"),
				p.WeightDeltaKG,
				fmtPtr(p.BodyFatDeltaPct, "%+.1f"),
				fmtPtr(p.Weight30dDeltaKG, "%+.1f"),
				fmtPtr(p.BodyFat30dDeltaPct, "%+.1f")))
		}
	} else {
		sb.WriteString("No subject history available.\n")
	}
	sb.WriteString("\n")

	// Warning Breakdown
	sb.WriteString("## Warning Breakdown\n\n")
	if len(r.WarningBreakdown) > 0 {
		sb.WriteString("| Code | Occurrences | Measurements |\n")
		sb.WriteString("|------|-------------|--------------|\n")
		for _, w := range r.WarningBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", w.Code, w.Occurrences, w.Measurements))
		}
	} else {
		sb.WriteString("No warnings recorded.\n")
	}
	sb.WriteString("\n")

	// Needs Review
	sb.WriteString("## Needs Review\n\n")
	if len(r.NeedsReview) > 0 {
		sb.WriteString("| Subject | Measurement | Flagged Criteria |\n")
		sb.WriteString("|---------|-------------|------------------|\n")
		for _, n := range r.NeedsReview {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				n.SubjectID, n.MeasurementID, strings.Join(n.FlaggedCriteria, "; ")))
		}
	} else {
		sb.WriteString("No measurements flagged for review.\n")
	}
	sb.WriteString("\n")

	// Reproducibility
	if r.Reproducibility.GeneratorVersion != "" {
		sb.WriteString("## Reproducibility\n\n")
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Generated | %s |\n", r.GeneratedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("| Generator version | %s |\n", r.Reproducibility.GeneratorVersion))
		sb.WriteString(fmt.Sprintf("| Engine version | %s |\n", r.EngineVersion))
		sb.WriteString(fmt.Sprintf("| Data version | %s |\n", r.DataVersion))
		sb.WriteString(fmt.Sprintf("| Commit | %s |\n", r.Reproducibility.CommitHash))
		sb.WriteString(fmt.Sprintf("| Rerun | `%s` |\n", r.Reproducibility.RerunCommand))
		sb.WriteString("\n")
	}

	return sb.String()
}

// fmtPtr formats an optional value, "-" when absent.
func fmtPtr(p *float64, format string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf(format, *p)
}

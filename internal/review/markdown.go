package review

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders a ReviewResult as Markdown string.
func RenderMarkdown(result *ReviewResult) string {
	var sb strings.Builder

	sb.WriteString("# Measurement Review\n\n")
	sb.WriteString(fmt.Sprintf("Measurement: %s (subject %s)\n\n", result.MeasurementID, result.SubjectID))
	sb.WriteString(fmt.Sprintf("## Verdict: %s\n\n", result.Verdict))

	// Criteria table
	sb.WriteString("## Criteria\n\n")
	sb.WriteString("| # | Criterion | Threshold | Actual | Status |\n")
	sb.WriteString("|---|-----------|-----------|--------|--------|\n")
	for i, c := range result.Criteria {
		status := "PASS"
		if !c.Pass {
			status = "FLAG"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, status))
	}
	sb.WriteString("\n")

	// Count passes
	passed := 0
	for _, c := range result.Criteria {
		if c.Pass {
			passed++
		}
	}
	sb.WriteString(fmt.Sprintf("Criteria: %d/%d passed\n\n", passed, len(result.Criteria)))

	// Summary
	sb.WriteString("## Summary\n\n")
	if result.Verdict == VerdictOK {
		sb.WriteString("All criteria passed; no review needed.\n")
	} else {
		sb.WriteString("Measurement needs review due to:\n")
		for _, c := range result.Criteria {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- %s (actual: %s)\n", c.Name, c.Actual))
			}
		}
	}

	return sb.String()
}

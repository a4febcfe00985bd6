package review

import (
	"strings"
	"testing"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
)

func ptr(v float64) *float64 { return &v }

// cleanPair returns a measurement/result pair that passes every criterion.
func cleanPair() (*domain.MeasurementInput, *domain.CalculationResult) {
	m := &domain.MeasurementInput{
		MeasurementID:       "rev-m1",
		SubjectID:           "rev-s1",
		Sex:                 domain.SexFemale,
		AgeYears:            30,
		WeightKG:            62,
		HeightCM:            167,
		SkinfoldTriceps:     ptr(18.5),
		SkinfoldBiceps:      ptr(11.0),
		SkinfoldSubscapular: ptr(16.0),
		SkinfoldSuprailiac:  ptr(15.0),
	}
	r := &domain.CalculationResult{
		MeasurementID:            "rev-m1",
		SubjectID:                "rev-s1",
		BodyFatPct:               ptr(24.5),
		ComponentSumDeviationPct: ptr(-0.3),
	}
	return m, r
}

func TestEvaluate_OK(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)
	m, r := cleanPair()

	result := evaluator.Evaluate(m, r)

	if result.Verdict != VerdictOK {
		t.Errorf("Expected OK, got %s", result.Verdict)
	}
	if result.MeasurementID != "rev-m1" || result.SubjectID != "rev-s1" {
		t.Errorf("identity not carried: %s / %s", result.MeasurementID, result.SubjectID)
	}
	if len(result.Criteria) != 5 {
		t.Fatalf("expected 5 criteria, got %d", len(result.Criteria))
	}
	for i, c := range result.Criteria {
		if !c.Pass {
			t.Errorf("criterion %d (%s) should pass, actual %q", i+1, c.Name, c.Actual)
		}
	}
	if flagged := result.FlaggedCriteria(); flagged != nil {
		t.Errorf("expected no flagged criteria, got %v", flagged)
	}
}

func TestEvaluate_BodyFatOutOfRange(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)
	m, r := cleanPair()
	r.BodyFatPct = ptr(65.0) // above 60% cutoff

	result := evaluator.Evaluate(m, r)

	if result.Verdict != VerdictNeedsReview {
		t.Errorf("Expected NEEDS_REVIEW, got %s", result.Verdict)
	}
	if result.Criteria[0].Pass {
		t.Error("criterion 1 (body fat range) should be flagged")
	}
	if result.Criteria[0].Actual != "65.0%" {
		t.Errorf("expected actual 65.0%%, got %q", result.Criteria[0].Actual)
	}
}

func TestEvaluate_ComponentSumMismatch(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)
	m, r := cleanPair()
	r.ComponentSumDeviationPct = ptr(-3.4) // beyond 2% tolerance

	result := evaluator.Evaluate(m, r)

	if result.Verdict != VerdictNeedsReview {
		t.Errorf("Expected NEEDS_REVIEW, got %s", result.Verdict)
	}
	if result.Criteria[1].Pass {
		t.Error("criterion 2 (component sum) should be flagged")
	}
}

func TestEvaluate_AgeOutOfRange(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)
	m, r := cleanPair()
	m.AgeYears = 14 // below the 16-year table floor

	result := evaluator.Evaluate(m, r)

	if result.Verdict != VerdictNeedsReview {
		t.Errorf("Expected NEEDS_REVIEW, got %s", result.Verdict)
	}
	if result.Criteria[2].Pass {
		t.Error("criterion 3 (age range) should be flagged")
	}
	if result.Criteria[2].Actual != "14.0 years" {
		t.Errorf("expected actual 14.0 years, got %q", result.Criteria[2].Actual)
	}
}

func TestEvaluate_SuspiciousSkinfold(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)
	m, r := cleanPair()
	m.SkinfoldThigh = ptr(61.0) // above 60 mm cutoff

	result := evaluator.Evaluate(m, r)

	if result.Verdict != VerdictNeedsReview {
		t.Errorf("Expected NEEDS_REVIEW, got %s", result.Verdict)
	}
	if result.Criteria[3].Pass {
		t.Error("criterion 4 (skinfold cutoff) should be flagged")
	}
	// Actual names the offending site
	if !strings.Contains(result.Criteria[3].Actual, "skinfold_thigh") {
		t.Errorf("expected site name in actual, got %q", result.Criteria[3].Actual)
	}
}

func TestEvaluate_IncompleteProfile(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)

	// Weight/height only: body fat not computable
	m := &domain.MeasurementInput{
		MeasurementID: "rev-m2",
		SubjectID:     "rev-s2",
		Sex:           domain.SexMale,
		AgeYears:      40,
		WeightKG:      80,
		HeightCM:      178,
	}
	r := &domain.CalculationResult{
		MeasurementID: "rev-m2",
		SubjectID:     "rev-s2",
	}

	result := evaluator.Evaluate(m, r)

	if result.Verdict != VerdictNeedsReview {
		t.Errorf("Expected NEEDS_REVIEW, got %s", result.Verdict)
	}
	// Range criteria pass on absent values; completeness carries the flag
	if !result.Criteria[0].Pass {
		t.Error("criterion 1 should pass when body fat is not computable")
	}
	if result.Criteria[0].Actual != "not computable" {
		t.Errorf("expected actual not computable, got %q", result.Criteria[0].Actual)
	}
	if !result.Criteria[3].Pass {
		t.Error("criterion 4 should pass with no skinfolds recorded")
	}
	if result.Criteria[4].Pass {
		t.Error("criterion 5 (completeness) should be flagged")
	}

	flagged := result.FlaggedCriteria()
	if len(flagged) != 1 || flagged[0] != "Profile completeness" {
		t.Errorf("expected only completeness flagged, got %v", flagged)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)
	m, r := cleanPair()
	m.SkinfoldThigh = ptr(61.0)

	var first *ReviewResult
	for run := 0; run < 5; run++ {
		result := evaluator.Evaluate(m, r)
		if run == 0 {
			first = result
			continue
		}
		if result.Verdict != first.Verdict {
			t.Errorf("Run %d: Verdict mismatch", run)
		}
		for i := range result.Criteria {
			if result.Criteria[i].Pass != first.Criteria[i].Pass {
				t.Errorf("Run %d: Criteria[%d] Pass mismatch", run, i)
			}
			if result.Criteria[i].Actual != first.Criteria[i].Actual {
				t.Errorf("Run %d: Criteria[%d] Actual mismatch", run, i)
			}
		}
	}
}

func TestRenderMarkdown_OK(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)
	m, r := cleanPair()

	md := RenderMarkdown(evaluator.Evaluate(m, r))

	if !strings.Contains(md, "## Verdict: OK") {
		t.Error("Markdown should contain OK verdict")
	}
	if !strings.Contains(md, "## Criteria") {
		t.Error("Markdown should contain Criteria section")
	}
	if !strings.Contains(md, "5/5 passed") {
		t.Error("Markdown should show 5/5 criteria passed")
	}
	if strings.Contains(md, "FLAG") {
		t.Error("Markdown should not contain FLAG for a clean result")
	}
}

func TestRenderMarkdown_NeedsReview(t *testing.T) {
	evaluator := NewEvaluator(calc.DefaultConfig)
	m, r := cleanPair()
	r.BodyFatPct = ptr(65.0)

	md := RenderMarkdown(evaluator.Evaluate(m, r))

	if !strings.Contains(md, "## Verdict: NEEDS_REVIEW") {
		t.Error("Markdown should contain NEEDS_REVIEW verdict")
	}
	if !strings.Contains(md, "FLAG") {
		t.Error("Markdown should contain FLAG for the flagged criterion")
	}
	if !strings.Contains(md, "4/5 passed") {
		t.Error("Markdown should show 4/5 criteria passed")
	}
	if !strings.Contains(md, "- Body fat in plausible range (actual: 65.0%)") {
		t.Error("Summary should list the flagged criterion")
	}
}

package review

import (
	"fmt"
	"math"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
)

// Evaluator evaluates review criteria for computed results.
// It rechecks the raw values against the engine thresholds, so a result can
// be reviewed standalone without trusting its stored warnings.
type Evaluator struct {
	cfg calc.Config
}

// NewEvaluator creates a review evaluator with the given thresholds.
func NewEvaluator(cfg calc.Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate produces a ReviewResult for one measurement and its result.
// OK if ALL criteria pass; NEEDS_REVIEW if ANY criterion is flagged.
func (e *Evaluator) Evaluate(m *domain.MeasurementInput, r *domain.CalculationResult) *ReviewResult {
	criteria := e.evaluateCriteria(m, r)

	verdict := VerdictOK
	for _, c := range criteria {
		if !c.Pass {
			verdict = VerdictNeedsReview
			break
		}
	}

	return &ReviewResult{
		MeasurementID: r.MeasurementID,
		SubjectID:     r.SubjectID,
		Verdict:       verdict,
		Criteria:      criteria,
	}
}

// evaluateCriteria evaluates the 5 review criteria.
// Not-computable values pass the range criteria; absence is the completeness
// criterion's job, so one missing site never flags a measurement twice.
func (e *Evaluator) evaluateCriteria(m *domain.MeasurementInput, r *domain.CalculationResult) []CriterionResult {
	criteria := make([]CriterionResult, 5)

	// 1. Body fat within plausible range
	bodyFatPass := true
	bodyFatActual := "not computable"
	if r.BodyFatPct != nil {
		bodyFatPass = *r.BodyFatPct >= e.cfg.BodyFatMinPct && *r.BodyFatPct <= e.cfg.BodyFatMaxPct
		bodyFatActual = fmt.Sprintf("%.1f%%", *r.BodyFatPct)
	}
	criteria[0] = CriterionResult{
		Name:      "Body fat in plausible range",
		Threshold: fmt.Sprintf("[%.0f%%, %.0f%%]", e.cfg.BodyFatMinPct, e.cfg.BodyFatMaxPct),
		Actual:    bodyFatActual,
		Pass:      bodyFatPass,
	}

	// 2. Five-component sum within tolerance of body weight
	sumPass := true
	sumActual := "not computable"
	if r.ComponentSumDeviationPct != nil {
		sumPass = math.Abs(*r.ComponentSumDeviationPct) <= e.cfg.ComponentSumTolerancePct
		sumActual = fmt.Sprintf("%.2f%% deviation", *r.ComponentSumDeviationPct)
	}
	criteria[1] = CriterionResult{
		Name:      "Component sum matches weight",
		Threshold: fmt.Sprintf("|deviation| <= %.1f%%", e.cfg.ComponentSumTolerancePct),
		Actual:    sumActual,
		Pass:      sumPass,
	}

	// 3. Age within the coefficient table
	criteria[2] = CriterionResult{
		Name:      "Age within supported range",
		Threshold: fmt.Sprintf("[%.0f, %.0f] years", e.cfg.AgeSupportedMin, e.cfg.AgeSupportedMax),
		Actual:    fmt.Sprintf("%.1f years", m.AgeYears),
		Pass:      m.AgeYears >= e.cfg.AgeSupportedMin && m.AgeYears <= e.cfg.AgeSupportedMax,
	}

	// 4. All recorded skinfolds under the suspicious cutoff
	maxSite, maxValue, hasSkinfolds := maxSkinfold(m)
	skinfoldPass := true
	skinfoldActual := "no skinfolds recorded"
	if hasSkinfolds {
		skinfoldPass = maxValue <= e.cfg.SkinfoldSuspiciousMM
		skinfoldActual = fmt.Sprintf("max %.1f mm (%s)", maxValue, maxSite)
	}
	criteria[3] = CriterionResult{
		Name:      "Skinfolds under suspicious cutoff",
		Threshold: fmt.Sprintf("<= %.0f mm", e.cfg.SkinfoldSuspiciousMM),
		Actual:    skinfoldActual,
		Pass:      skinfoldPass,
	}

	// 5. Profile complete enough for body fat
	completenessActual := "body fat computable"
	if r.BodyFatPct == nil {
		completenessActual = "body fat not computable"
	}
	criteria[4] = CriterionResult{
		Name:      "Profile completeness",
		Threshold: "body fat computable",
		Actual:    completenessActual,
		Pass:      r.BodyFatPct != nil,
	}

	return criteria
}

// maxSkinfold returns the largest recorded skinfold and its site name.
func maxSkinfold(m *domain.MeasurementInput) (string, float64, bool) {
	var site string
	var value float64
	found := false
	for _, s := range m.Skinfolds() {
		if s.Value == nil {
			continue
		}
		if !found || *s.Value > value {
			site = s.Name
			value = *s.Value
			found = true
		}
	}
	return site, value, found
}

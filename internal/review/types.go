package review

// Verdict represents the final review outcome for one measurement.
type Verdict string

const (
	VerdictOK          Verdict = "OK"
	VerdictNeedsReview Verdict = "NEEDS_REVIEW"
)

// CriterionResult represents pass/flag for one review criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// ReviewResult contains the verdict for one measurement with the evaluated
// checklist.
type ReviewResult struct {
	MeasurementID string
	SubjectID     string
	Verdict       Verdict
	Criteria      []CriterionResult
}

// FlaggedCriteria returns the names of criteria that did not pass, in
// checklist order.
func (r *ReviewResult) FlaggedCriteria() []string {
	var flagged []string
	for _, c := range r.Criteria {
		if !c.Pass {
			flagged = append(flagged, c.Name)
		}
	}
	return flagged
}

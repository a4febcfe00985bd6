package pipeline

import (
	"context"
	"fmt"
	"sort"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all 5 checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker validates the measurement set before cohort statistics
// are published.
type SufficiencyChecker struct {
	measurementStore storage.MeasurementStore
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(measurementStore storage.MeasurementStore) *SufficiencyChecker {
	return &SufficiencyChecker{measurementStore: measurementStore}
}

// Check performs all 5 sufficiency checks.
func (c *SufficiencyChecker) Check(ctx context.Context) (*SufficiencyResult, error) {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 5),
		AllPass: true,
		Errors:  []string{},
	}

	measurements, err := c.measurementStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load measurements: %w", err)
	}

	// Check 1: total measurements >= 10
	check1 := c.checkTotalMeasurements(measurements)
	result.Checks = append(result.Checks, check1)
	if !check1.Pass {
		result.AllPass = false
	}

	// Check 2: distinct subjects >= 3
	check2 := c.checkDistinctSubjects(measurements)
	result.Checks = append(result.Checks, check2)
	if !check2.Pass {
		result.AllPass = false
	}

	// Check 3: complete Durnin-Womersley skinfold sets >= 80%
	check3 := c.checkSkinfoldCoverage(measurements)
	result.Checks = append(result.Checks, check3)
	if !check3.Pass {
		result.AllPass = false
	}

	// Check 4: duplicate measurement_id count == 0
	check4, duplicateErrors := c.checkDuplicateMeasurements(measurements)
	result.Checks = append(result.Checks, check4)
	if !check4.Pass {
		result.AllPass = false
		result.Errors = append(result.Errors, duplicateErrors...)
	}

	// Check 5: malformed measurements == 0
	check5, malformedErrors := c.checkMalformedMeasurements(measurements)
	result.Checks = append(result.Checks, check5)
	if !check5.Pass {
		result.AllPass = false
		result.Errors = append(result.Errors, malformedErrors...)
	}

	return result, nil
}

// checkTotalMeasurements: stored measurements >= 10.
func (c *SufficiencyChecker) checkTotalMeasurements(measurements []*domain.MeasurementInput) SufficiencyCheck {
	count := len(measurements)
	return SufficiencyCheck{
		Name:      "Total measurements",
		Threshold: ">= 10",
		Actual:    fmt.Sprintf("%d", count),
		Pass:      count >= 10,
	}
}

// checkDistinctSubjects: distinct subjects >= 3. Percentiles over one or
// two subjects describe individuals, not a cohort.
func (c *SufficiencyChecker) checkDistinctSubjects(measurements []*domain.MeasurementInput) SufficiencyCheck {
	subjects := make(map[string]bool)
	for _, m := range measurements {
		subjects[m.SubjectID] = true
	}
	count := len(subjects)
	return SufficiencyCheck{
		Name:      "Distinct subjects",
		Threshold: ">= 3",
		Actual:    fmt.Sprintf("%d", count),
		Pass:      count >= 3,
	}
}

// checkSkinfoldCoverage: measurements carrying all four Durnin-Womersley
// sites (triceps, biceps, subscapular, suprailiac) >= 80%. Below that the
// body fat columns of the cohort tables are mostly holes.
func (c *SufficiencyChecker) checkSkinfoldCoverage(measurements []*domain.MeasurementInput) SufficiencyCheck {
	total := len(measurements)
	if total == 0 {
		return SufficiencyCheck{
			Name:      "Complete skinfold sets",
			Threshold: ">= 80%",
			Actual:    "0/0 (no measurements)",
			Pass:      false,
		}
	}

	complete := 0
	for _, m := range measurements {
		if m.SkinfoldTriceps != nil && m.SkinfoldBiceps != nil &&
			m.SkinfoldSubscapular != nil && m.SkinfoldSuprailiac != nil {
			complete++
		}
	}
	pct := float64(complete) / float64(total) * 100

	return SufficiencyCheck{
		Name:      "Complete skinfold sets",
		Threshold: ">= 80%",
		Actual:    fmt.Sprintf("%.1f%% (%d/%d)", pct, complete, total),
		Pass:      pct >= 80,
	}
}

// checkDuplicateMeasurements: duplicate measurement_id count == 0.
func (c *SufficiencyChecker) checkDuplicateMeasurements(measurements []*domain.MeasurementInput) (SufficiencyCheck, []string) {
	seen := make(map[string]int)
	for _, m := range measurements {
		seen[m.MeasurementID]++
	}

	duplicateCount := 0
	var errors []string
	// Sort keys for deterministic output
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, id := range keys {
		count := seen[id]
		if count > 1 {
			duplicateCount++
			errors = append(errors, fmt.Sprintf("duplicate measurement_id: %s (count=%d)", id, count))
		}
	}

	return SufficiencyCheck{
		Name:      "Duplicate measurement_id count",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", duplicateCount),
		Pass:      duplicateCount == 0,
	}, errors
}

// checkMalformedMeasurements: structurally invalid measurements == 0.
// Stores accept whatever a backfill or direct table edit hands them; rows
// the engine would reject are named here before compute drops them.
func (c *SufficiencyChecker) checkMalformedMeasurements(measurements []*domain.MeasurementInput) (SufficiencyCheck, []string) {
	// Sort by ID for deterministic output
	sorted := make([]*domain.MeasurementInput, len(measurements))
	copy(sorted, measurements)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MeasurementID < sorted[j].MeasurementID
	})

	malformedCount := 0
	var errors []string
	for _, m := range sorted {
		if err := calc.Validate(m); err != nil {
			malformedCount++
			errors = append(errors, fmt.Sprintf("malformed measurement %s: %v", m.MeasurementID, err))
		}
	}

	return SufficiencyCheck{
		Name:      "Malformed measurements",
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", malformedCount),
		Pass:      malformedCount == 0,
	}, errors
}

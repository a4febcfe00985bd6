package analytics

import (
	"math"
	"sort"

	"bodycomp-lab/internal/domain"
)

// cohortEntry pairs a computed result with its backing measurement.
// Entries must be pre-filtered by (sex, objective).
type cohortEntry struct {
	result      *domain.CalculationResult
	measurement *domain.MeasurementInput
}

// computeFromCohort calculates all aggregate statistics from cohort entries.
// Entries are sorted by MeasurementID ASC before accumulating so that float
// summation order, and with it every mean, is reproducible across runs.
// Body-fat distribution fields stay zero when no entry has a computable body
// fat; BodyFatComputable tells the two cases apart.
func computeFromCohort(entries []*cohortEntry, sex domain.Sex, objective domain.Objective) *domain.CohortAggregate {
	n := len(entries)
	if n == 0 {
		return &domain.CohortAggregate{
			Sex:       sex,
			Objective: objective,
		}
	}

	// Sort entries deterministically by MeasurementID ASC
	sorted := make([]*cohortEntry, n)
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].result.MeasurementID < sorted[j].result.MeasurementID
	})

	agg := &domain.CohortAggregate{
		Sex:               sex,
		Objective:         objective,
		TotalMeasurements: n,
	}

	subjects := make(map[string]bool)
	weights := make([]float64, 0, n)
	var bodyFats []float64
	var leanMasses, muscleMasses []float64
	var endos, mesos, ectos []float64

	for _, e := range sorted {
		r := e.result
		subjects[r.SubjectID] = true
		weights = append(weights, e.measurement.WeightKG)

		if r.BodyFatPct != nil {
			agg.BodyFatComputable++
			bodyFats = append(bodyFats, *r.BodyFatPct)
		}
		if fractionationComplete(r) {
			agg.FractionationComplete++
		}
		if r.Endomorphy != nil && r.Mesomorphy != nil && r.Ectomorphy != nil {
			agg.SomatotypeComplete++
		}
		if len(r.Warnings) > 0 {
			agg.WithWarnings++
		}

		leanMasses = appendIfSet(leanMasses, r.LeanMassKG)
		muscleMasses = appendIfSet(muscleMasses, r.MuscleMassKG)
		endos = appendIfSet(endos, r.Endomorphy)
		mesos = appendIfSet(mesos, r.Mesomorphy)
		ectos = appendIfSet(ectos, r.Ectomorphy)

		// Breakdown counts results carrying the code, not individual
		// warnings; one result with two suspicious skinfolds counts once.
		if r.HasWarning(domain.WarningAgeOutOfRange) {
			agg.AgeOutOfRangeCount++
		}
		if r.HasWarning(domain.WarningBodyFatOutOfRange) {
			agg.BodyFatOutOfRangeCount++
		}
		if r.HasWarning(domain.WarningComponentSumMismatch) {
			agg.ComponentSumMismatchCount++
		}
		if r.HasWarning(domain.WarningSkinfoldSuspicious) {
			agg.SkinfoldSuspiciousCount++
		}
	}

	agg.TotalSubjects = len(subjects)
	agg.WeightMean = computeMean(weights)

	if len(bodyFats) > 0 {
		// Sort body fats for percentile calculations
		sortedFats := make([]float64, len(bodyFats))
		copy(sortedFats, bodyFats)
		sort.Float64s(sortedFats)

		mean := computeMean(bodyFats)
		agg.BodyFatMean = mean
		agg.BodyFatMedian = computePercentile(sortedFats, 0.50)
		agg.BodyFatP10 = computePercentile(sortedFats, 0.10)
		agg.BodyFatP25 = computePercentile(sortedFats, 0.25)
		agg.BodyFatP75 = computePercentile(sortedFats, 0.75)
		agg.BodyFatP90 = computePercentile(sortedFats, 0.90)
		agg.BodyFatMin = sortedFats[0]
		agg.BodyFatMax = sortedFats[len(sortedFats)-1]
		agg.BodyFatStddev = computeStddev(bodyFats, mean)
	}

	agg.LeanMassMean = meanIfAny(leanMasses)
	agg.MuscleMassMean = meanIfAny(muscleMasses)
	agg.EndomorphyMean = meanIfAny(endos)
	agg.MesomorphyMean = meanIfAny(mesos)
	agg.EctomorphyMean = meanIfAny(ectos)

	return agg
}

// fractionationComplete reports whether all five mass components are present.
func fractionationComplete(r *domain.CalculationResult) bool {
	return r.MuscleMassKG != nil && r.AdiposeMassKG != nil && r.BoneMassKG != nil &&
		r.ResidualMassKG != nil && r.SkinMassKG != nil
}

// appendIfSet collects the value of an optional result field.
func appendIfSet(dst []float64, v *float64) []float64 {
	if v == nil {
		return dst
	}
	return append(dst, *v)
}

// meanIfAny returns the mean of values, or nil when none were collected.
func meanIfAny(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	mean := computeMean(values)
	return &mean
}

// computeMean calculates arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	// Linear interpolation
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

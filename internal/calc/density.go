package calc

import (
	"math"

	"bodycomp-lab/internal/domain"
)

// ageBandIndex returns the coefficient band for an age. Bands are
// inclusive-low: an age equal to a band's lower bound selects that band
// (age 20 selects 20-29, not 17-19). Every age maps to some band, so ages
// outside the supported range clamp to the nearest band by construction.
func ageBandIndex(ageYears float64) int {
	for i, upper := range ageBandUpper {
		if ageYears < upper {
			return i
		}
	}
	return len(ageBandUpper) - 1
}

// AgeBandLabel returns the reporting label of the band an age falls in.
func AgeBandLabel(ageYears float64) string {
	return ageBandLabels[ageBandIndex(ageYears)]
}

// bodyDensity computes the Durnin-Womersley density in g/mL from the 4-site
// skinfold sum. Returns nil if sum4 is nil or not positive; log10 of a
// non-positive sum is undefined.
func bodyDensity(sex domain.Sex, ageYears float64, sum4 *float64) *float64 {
	if sum4 == nil || *sum4 <= 0 {
		return nil
	}
	coeffs, ok := densityCoefficients[sex]
	if !ok {
		return nil
	}
	c := coeffs[ageBandIndex(ageYears)]
	d := c.C - c.M*math.Log10(*sum4)
	return &d
}

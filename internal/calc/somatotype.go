package calc

import (
	"math"

	"bodycomp-lab/internal/domain"
)

// somatotype holds the Heath-Carter components. Each is independently nil
// when its inputs are missing.
type somatotype struct {
	Endomorphy *float64
	Mesomorphy *float64
	Ectomorphy *float64
}

// computeSomatotype derives the Heath-Carter somatotype.
func computeSomatotype(m *domain.MeasurementInput) somatotype {
	return somatotype{
		Endomorphy: computeEndomorphy(m),
		Mesomorphy: computeMesomorphy(m),
		Ectomorphy: computeEctomorphy(m),
	}
}

// computeEndomorphy uses the height-corrected sum of triceps, subscapular
// and supraspinal skinfolds.
func computeEndomorphy(m *domain.MeasurementInput) *float64 {
	s3 := sumIfComplete(m.SkinfoldTriceps, m.SkinfoldSubscapular, m.SkinfoldSupraspinal)
	if s3 == nil {
		return nil
	}
	x := *s3 * (phantomHeightCM / m.HeightCM)
	endo := -0.7182 + 0.1451*x - 0.00068*x*x + 0.0000014*x*x*x
	return &endo
}

// computeMesomorphy uses humeral and femoral breadths plus skinfold-corrected
// flexed arm and calf girths. Girth corrections here subtract skinfold/10
// directly (Heath-Carter convention, unlike the Kerr pi-correction).
func computeMesomorphy(m *domain.MeasurementInput) *float64 {
	if m.DiameterHumeral == nil || m.DiameterFemoral == nil ||
		m.GirthArmFlexed == nil || m.GirthCalf == nil ||
		m.SkinfoldTriceps == nil || m.SkinfoldCalf == nil {
		return nil
	}
	corrArm := *m.GirthArmFlexed - *m.SkinfoldTriceps/10.0
	corrCalf := *m.GirthCalf - *m.SkinfoldCalf/10.0
	meso := 0.858*(*m.DiameterHumeral) + 0.601*(*m.DiameterFemoral) +
		0.188*corrArm + 0.161*corrCalf - 0.131*m.HeightCM + 4.5
	return &meso
}

// computeEctomorphy uses the height/cbrt(weight) ratio with the three
// standard branches. The lowest branch is the constant floor; the result is
// never negative.
func computeEctomorphy(m *domain.MeasurementInput) *float64 {
	hwr := m.HeightCM / math.Cbrt(m.WeightKG)
	var ecto float64
	switch {
	case hwr >= ectoUpperHWR:
		ecto = 0.732*hwr - 28.58
	case hwr > ectoLowerHWR:
		ecto = 0.463*hwr - 17.63
	default:
		ecto = ectoFloor
	}
	if ecto < 0 {
		ecto = 0
	}
	return &ecto
}

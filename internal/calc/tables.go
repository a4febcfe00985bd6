package calc

import (
	"math"

	"bodycomp-lab/internal/domain"
)

// Coefficient tables for the formula pipeline. All tables are package-level
// values initialized once and never mutated.

// densityCoefficient holds one Durnin-Womersley regression pair:
// density = C - M * log10(sum4).
type densityCoefficient struct {
	C float64
	M float64
}

// Age band upper bounds, exclusive. Band selection is inclusive-low:
// age 17 falls in 17-19, age 20 falls in 20-29, age 50 falls in 50+.
var ageBandUpper = []float64{17, 20, 30, 40, 50, math.Inf(1)}

// ageBandLabels mirror ageBandUpper for reporting.
var ageBandLabels = []string{"<17", "17-19", "20-29", "30-39", "40-49", "50+"}

// Durnin-Womersley (1974) coefficients by sex, indexed by age band.
var densityCoefficients = map[domain.Sex][]densityCoefficient{
	domain.SexMale: {
		{C: 1.1533, M: 0.0643}, // <17
		{C: 1.1620, M: 0.0630}, // 17-19
		{C: 1.1631, M: 0.0632}, // 20-29
		{C: 1.1422, M: 0.0544}, // 30-39
		{C: 1.1620, M: 0.0700}, // 40-49
		{C: 1.1715, M: 0.0779}, // 50+
	},
	domain.SexFemale: {
		{C: 1.1369, M: 0.0598}, // <17
		{C: 1.1549, M: 0.0678}, // 17-19
		{C: 1.1599, M: 0.0717}, // 20-29
		{C: 1.1423, M: 0.0632}, // 30-39
		{C: 1.1333, M: 0.0612}, // 40-49
		{C: 1.1339, M: 0.0645}, // 50+
	},
}

// Activity factors applied to BMR for maintenance calories.
var activityFactors = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary:  1.2,
	domain.ActivityLight:      1.375,
	domain.ActivityModerate:   1.55,
	domain.ActivityActive:     1.725,
	domain.ActivityVeryActive: 1.9,
}

// Objective offsets applied to maintenance calories.
var objectiveOffsets = map[domain.Objective]float64{
	domain.ObjectiveLoss:     -0.20,
	domain.ObjectiveGain:     +0.15,
	domain.ObjectiveMaintain: 0,
}

// Macro policy: protein per kg of lean mass, fat share of target calories,
// caloric density per gram.
const (
	proteinPerKgLean = 2.0
	fatCalorieShare  = 0.25
	kcalPerGProtein  = 4.0
	kcalPerGFat      = 9.0
	kcalPerGCarb     = 4.0
)

// Phantom reference (Ross & Wilson) used by the Kerr fractionation.
// Raw compounds are size-adjusted to the phantom height before the Z-score,
// and component masses scaled back by (height/phantom)^3.
const phantomHeightCM = 170.18

// zScoreSpec holds the phantom mean/SD of a measurement compound and the
// phantom mean/SD of the tissue mass it predicts.
type zScoreSpec struct {
	Mean   float64
	SD     float64
	MassKG float64
	MassSD float64
}

var (
	// Sum of 6 skinfolds: triceps, subscapular, supraspinal, abdominal,
	// thigh, calf.
	kerrAdipose = zScoreSpec{Mean: 116.41, SD: 34.79, MassKG: 25.6, MassSD: 5.85}

	// Sum of skinfold-corrected girths: arm relaxed, forearm, thorax,
	// thigh medial, calf.
	kerrMuscle = zScoreSpec{Mean: 207.21, SD: 13.74, MassKG: 24.5, MassSD: 5.4}

	// Sum of breadths: biacromial + biiliac + 2*humeral + 2*femoral.
	kerrBoneBody = zScoreSpec{Mean: 98.88, SD: 5.33, MassKG: 6.70, MassSD: 1.34}

	// Corrected waist girth + thorax transverse + thorax anteroposterior.
	kerrResidual = zScoreSpec{Mean: 109.35, SD: 7.08, MassKG: 6.10, MassSD: 1.24}
)

// Head bone is fixed at the phantom mean; head girth is not part of the
// ISAK 2 capture set.
const kerrBoneHeadKG = 1.20

// Skin mass constants: surface area coefficient (Kerr variant of Du Bois)
// and skin thickness by sex.
const (
	skinSurfaceCoeff = 68.308
	skinDensityGCm3  = 1.05
)

var skinThicknessMM = map[domain.Sex]float64{
	domain.SexMale:   2.07,
	domain.SexFemale: 1.96,
}

// Heath-Carter constants.
const (
	// Ectomorphy branches over the height/cbrt(weight) ratio.
	ectoUpperHWR = 40.75
	ectoLowerHWR = 38.25
	ectoFloor    = 0.1
)

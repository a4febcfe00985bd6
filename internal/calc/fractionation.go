package calc

import (
	"math"

	"bodycomp-lab/internal/domain"
)

// fractionation holds the Kerr five-component decomposition of body weight.
// Each component is independently nil when its input sites are missing.
type fractionation struct {
	MuscleKG   *float64
	AdiposeKG  *float64
	BoneKG     *float64
	ResidualKG *float64
	SkinKG     *float64

	// Closure, populated only when all five components are present.
	SumKG        *float64
	DeviationPct *float64
}

// computeFractionation applies the Kerr (1988) phantom Z-score method.
// Raw compounds are scaled to the phantom height, converted to a Z-score
// against the phantom mean/SD, mapped to a tissue mass, and scaled back by
// (height/phantom)^3. Components are never renormalized to close the sum;
// the deviation is reported as-is.
func computeFractionation(m *domain.MeasurementInput) fractionation {
	var f fractionation

	f.SkinKG = skinMass(m)
	f.AdiposeKG = adiposeMass(m)
	f.MuscleKG = muscleMass(m)
	f.BoneKG = boneMass(m)
	f.ResidualKG = residualMass(m)

	if f.SkinKG != nil && f.AdiposeKG != nil && f.MuscleKG != nil && f.BoneKG != nil && f.ResidualKG != nil {
		sum := *f.SkinKG + *f.AdiposeKG + *f.MuscleKG + *f.BoneKG + *f.ResidualKG
		dev := (sum - m.WeightKG) / m.WeightKG * 100.0
		f.SumKG = &sum
		f.DeviationPct = &dev
	}
	return f
}

// componentMass maps a size-adjusted compound through its phantom Z-score.
func componentMass(compound, heightCM float64, spec zScoreSpec) float64 {
	z := (compound*(phantomHeightCM/heightCM) - spec.Mean) / spec.SD
	return (z*spec.MassSD + spec.MassKG) * math.Pow(heightCM/phantomHeightCM, 3)
}

// correctedGirth removes the subcutaneous layer from a girth:
// girth (cm) minus pi * skinfold (mm) / 10.
func correctedGirth(girthCM, skinfoldMM float64) float64 {
	return girthCM - math.Pi*skinfoldMM/10.0
}

// skinMass estimates skin tissue from body surface area and sex-specific
// skin thickness. Weight and height are always present, so skin is always
// computable.
func skinMass(m *domain.MeasurementInput) *float64 {
	t, ok := skinThicknessMM[m.Sex]
	if !ok {
		return nil
	}
	surfaceCM2 := skinSurfaceCoeff * math.Pow(m.HeightCM, 0.725) * math.Pow(m.WeightKG, 0.425)
	kg := surfaceCM2 * (t / 10.0) * skinDensityGCm3 / 1000.0
	return &kg
}

// adiposeMass requires the six ISAK skinfolds.
func adiposeMass(m *domain.MeasurementInput) *float64 {
	s6 := sumIfComplete(m.SkinfoldTriceps, m.SkinfoldSubscapular, m.SkinfoldSupraspinal,
		m.SkinfoldAbdominal, m.SkinfoldThigh, m.SkinfoldCalf)
	if s6 == nil {
		return nil
	}
	kg := componentMass(*s6, m.HeightCM, kerrAdipose)
	return &kg
}

// muscleMass requires five girths and the four skinfolds that correct them.
func muscleMass(m *domain.MeasurementInput) *float64 {
	if m.GirthArmRelaxed == nil || m.GirthForearm == nil || m.GirthThorax == nil ||
		m.GirthThighMedial == nil || m.GirthCalf == nil ||
		m.SkinfoldTriceps == nil || m.SkinfoldSubscapular == nil ||
		m.SkinfoldThigh == nil || m.SkinfoldCalf == nil {
		return nil
	}
	compound := correctedGirth(*m.GirthArmRelaxed, *m.SkinfoldTriceps) +
		*m.GirthForearm +
		correctedGirth(*m.GirthThorax, *m.SkinfoldSubscapular) +
		correctedGirth(*m.GirthThighMedial, *m.SkinfoldThigh) +
		correctedGirth(*m.GirthCalf, *m.SkinfoldCalf)
	kg := componentMass(compound, m.HeightCM, kerrMuscle)
	return &kg
}

// boneMass requires the four skeletal breadths. Head bone is a phantom
// constant (head girth is not captured) added on top of body bone.
func boneMass(m *domain.MeasurementInput) *float64 {
	if m.DiameterBiacromial == nil || m.DiameterBiiliac == nil ||
		m.DiameterHumeral == nil || m.DiameterFemoral == nil {
		return nil
	}
	compound := *m.DiameterBiacromial + *m.DiameterBiiliac +
		2.0*(*m.DiameterHumeral) + 2.0*(*m.DiameterFemoral)
	kg := componentMass(compound, m.HeightCM, kerrBoneBody) + kerrBoneHeadKG
	return &kg
}

// residualMass requires the corrected waist girth and both thorax breadths.
func residualMass(m *domain.MeasurementInput) *float64 {
	if m.GirthWaist == nil || m.SkinfoldAbdominal == nil ||
		m.DiameterThoraxTransverse == nil || m.DiameterThoraxAnteroposterior == nil {
		return nil
	}
	compound := correctedGirth(*m.GirthWaist, *m.SkinfoldAbdominal) +
		*m.DiameterThoraxTransverse + *m.DiameterThoraxAnteroposterior
	kg := componentMass(compound, m.HeightCM, kerrResidual)
	return &kg
}

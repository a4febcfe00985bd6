package domain

// MeasurementInput represents one anthropometric capture session (ISAK 2 protocol).
// Corresponds to the measurements table in Postgres.
//
// Every optional site is either a finite non-negative value or nil; nil means
// "not measured" and propagates as not-computable downstream. Zero is a real
// reading, never a placeholder for absent.
type MeasurementInput struct {
	MeasurementID string // unique measurement identifier
	SubjectID     string // patient reference
	TakenAtMs     int64  // capture timestamp (Unix ms)

	// Subject at capture time (denormalized; coefficients are sex/age specific)
	Sex       Sex
	AgeYears  float64
	Activity  ActivityLevel // empty defaults to SEDENTARY
	Objective Objective     // empty defaults to MAINTAIN

	// Basic, required
	WeightKG float64
	HeightCM float64

	// Skinfolds (mm)
	SkinfoldTriceps     *float64
	SkinfoldBiceps      *float64
	SkinfoldSubscapular *float64
	SkinfoldSuprailiac  *float64
	SkinfoldSupraspinal *float64
	SkinfoldAbdominal   *float64
	SkinfoldThigh       *float64
	SkinfoldCalf        *float64

	// Girths (cm)
	GirthWaist         *float64
	GirthHip           *float64
	GirthArmRelaxed    *float64
	GirthArmFlexed     *float64
	GirthForearm       *float64
	GirthThorax        *float64
	GirthThighSuperior *float64
	GirthThighMedial   *float64
	GirthCalf          *float64

	// Bone diameters (cm)
	DiameterBiacromial            *float64
	DiameterBiiliac               *float64
	DiameterHumeral               *float64 // biepicondylar humerus
	DiameterFemoral               *float64 // bicondylar femur
	DiameterThoraxTransverse      *float64
	DiameterThoraxAnteroposterior *float64
}

// Skinfolds returns all skinfold sites in ISAK order with their names.
// Used by validation and completeness reporting.
func (m *MeasurementInput) Skinfolds() []NamedValue {
	return []NamedValue{
		{"skinfold_triceps", m.SkinfoldTriceps},
		{"skinfold_biceps", m.SkinfoldBiceps},
		{"skinfold_subscapular", m.SkinfoldSubscapular},
		{"skinfold_suprailiac", m.SkinfoldSuprailiac},
		{"skinfold_supraspinal", m.SkinfoldSupraspinal},
		{"skinfold_abdominal", m.SkinfoldAbdominal},
		{"skinfold_thigh", m.SkinfoldThigh},
		{"skinfold_calf", m.SkinfoldCalf},
	}
}

// Girths returns all girth sites with their names.
func (m *MeasurementInput) Girths() []NamedValue {
	return []NamedValue{
		{"girth_waist", m.GirthWaist},
		{"girth_hip", m.GirthHip},
		{"girth_arm_relaxed", m.GirthArmRelaxed},
		{"girth_arm_flexed", m.GirthArmFlexed},
		{"girth_forearm", m.GirthForearm},
		{"girth_thorax", m.GirthThorax},
		{"girth_thigh_superior", m.GirthThighSuperior},
		{"girth_thigh_medial", m.GirthThighMedial},
		{"girth_calf", m.GirthCalf},
	}
}

// Diameters returns all bone diameter sites with their names.
func (m *MeasurementInput) Diameters() []NamedValue {
	return []NamedValue{
		{"diameter_biacromial", m.DiameterBiacromial},
		{"diameter_biiliac", m.DiameterBiiliac},
		{"diameter_humeral", m.DiameterHumeral},
		{"diameter_femoral", m.DiameterFemoral},
		{"diameter_thorax_transverse", m.DiameterThoraxTransverse},
		{"diameter_thorax_anteroposterior", m.DiameterThoraxAnteroposterior},
	}
}

// NamedValue pairs an optional site reading with its canonical field name.
type NamedValue struct {
	Name  string
	Value *float64
}

// Clone returns a deep copy. Optional sites are pointer fields, so a plain
// struct copy would share the underlying values with the original.
func (m *MeasurementInput) Clone() *MeasurementInput {
	if m == nil {
		return nil
	}
	c := *m
	c.SkinfoldTriceps = clonePtr(m.SkinfoldTriceps)
	c.SkinfoldBiceps = clonePtr(m.SkinfoldBiceps)
	c.SkinfoldSubscapular = clonePtr(m.SkinfoldSubscapular)
	c.SkinfoldSuprailiac = clonePtr(m.SkinfoldSuprailiac)
	c.SkinfoldSupraspinal = clonePtr(m.SkinfoldSupraspinal)
	c.SkinfoldAbdominal = clonePtr(m.SkinfoldAbdominal)
	c.SkinfoldThigh = clonePtr(m.SkinfoldThigh)
	c.SkinfoldCalf = clonePtr(m.SkinfoldCalf)
	c.GirthWaist = clonePtr(m.GirthWaist)
	c.GirthHip = clonePtr(m.GirthHip)
	c.GirthArmRelaxed = clonePtr(m.GirthArmRelaxed)
	c.GirthArmFlexed = clonePtr(m.GirthArmFlexed)
	c.GirthForearm = clonePtr(m.GirthForearm)
	c.GirthThorax = clonePtr(m.GirthThorax)
	c.GirthThighSuperior = clonePtr(m.GirthThighSuperior)
	c.GirthThighMedial = clonePtr(m.GirthThighMedial)
	c.GirthCalf = clonePtr(m.GirthCalf)
	c.DiameterBiacromial = clonePtr(m.DiameterBiacromial)
	c.DiameterBiiliac = clonePtr(m.DiameterBiiliac)
	c.DiameterHumeral = clonePtr(m.DiameterHumeral)
	c.DiameterFemoral = clonePtr(m.DiameterFemoral)
	c.DiameterThoraxTransverse = clonePtr(m.DiameterThoraxTransverse)
	c.DiameterThoraxAnteroposterior = clonePtr(m.DiameterThoraxAnteroposterior)
	return &c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

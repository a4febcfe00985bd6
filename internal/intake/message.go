// Package intake moves measurement records from the surrounding
// application into storage: an AMQP consumer for live capture and a JSONL
// backfiller for historical exports. Both paths validate, persist, compute
// and record history through the same processor.
package intake

import "bodycomp-lab/internal/domain"

// MeasurementMessage is the JSON wire form of one anthropometry capture,
// as published by the capture application. Optional sites are pointers;
// absent or null means not measured.
type MeasurementMessage struct {
	MeasurementID string  `json:"measurement_id"`
	SubjectID     string  `json:"subject_id"`
	TakenAtMs     int64   `json:"taken_at_ms"`
	Sex           string  `json:"sex"`
	AgeYears      float64 `json:"age_years"`
	ActivityLevel string  `json:"activity_level,omitempty"`
	Objective     string  `json:"objective,omitempty"`

	WeightKG float64 `json:"weight_kg"`
	HeightCM float64 `json:"height_cm"`

	// Skinfolds (mm)
	SkinfoldTriceps     *float64 `json:"skinfold_triceps,omitempty"`
	SkinfoldBiceps      *float64 `json:"skinfold_biceps,omitempty"`
	SkinfoldSubscapular *float64 `json:"skinfold_subscapular,omitempty"`
	SkinfoldSuprailiac  *float64 `json:"skinfold_suprailiac,omitempty"`
	SkinfoldSupraspinal *float64 `json:"skinfold_supraspinal,omitempty"`
	SkinfoldAbdominal   *float64 `json:"skinfold_abdominal,omitempty"`
	SkinfoldThigh       *float64 `json:"skinfold_thigh,omitempty"`
	SkinfoldCalf        *float64 `json:"skinfold_calf,omitempty"`

	// Girths (cm)
	GirthWaist         *float64 `json:"girth_waist,omitempty"`
	GirthHip           *float64 `json:"girth_hip,omitempty"`
	GirthArmRelaxed    *float64 `json:"girth_arm_relaxed,omitempty"`
	GirthArmFlexed     *float64 `json:"girth_arm_flexed,omitempty"`
	GirthForearm       *float64 `json:"girth_forearm,omitempty"`
	GirthThorax        *float64 `json:"girth_thorax,omitempty"`
	GirthThighSuperior *float64 `json:"girth_thigh_superior,omitempty"`
	GirthThighMedial   *float64 `json:"girth_thigh_medial,omitempty"`
	GirthCalf          *float64 `json:"girth_calf,omitempty"`

	// Bone diameters (cm)
	DiameterBiacromial            *float64 `json:"diameter_biacromial,omitempty"`
	DiameterBiiliac               *float64 `json:"diameter_biiliac,omitempty"`
	DiameterHumeral               *float64 `json:"diameter_humeral,omitempty"`
	DiameterFemoral               *float64 `json:"diameter_femoral,omitempty"`
	DiameterThoraxTransverse      *float64 `json:"diameter_thorax_transverse,omitempty"`
	DiameterThoraxAnteroposterior *float64 `json:"diameter_thorax_anteroposterior,omitempty"`
}

// ToDomain converts the wire message to a domain measurement. The message
// is transient, so pointer fields transfer without copying. No validation
// happens here; the calculation engine is the gatekeeper.
func (msg *MeasurementMessage) ToDomain() *domain.MeasurementInput {
	return &domain.MeasurementInput{
		MeasurementID: msg.MeasurementID,
		SubjectID:     msg.SubjectID,
		TakenAtMs:     msg.TakenAtMs,

		Sex:       domain.Sex(msg.Sex),
		AgeYears:  msg.AgeYears,
		Activity:  domain.ActivityLevel(msg.ActivityLevel),
		Objective: domain.Objective(msg.Objective),

		WeightKG: msg.WeightKG,
		HeightCM: msg.HeightCM,

		SkinfoldTriceps:     msg.SkinfoldTriceps,
		SkinfoldBiceps:      msg.SkinfoldBiceps,
		SkinfoldSubscapular: msg.SkinfoldSubscapular,
		SkinfoldSuprailiac:  msg.SkinfoldSuprailiac,
		SkinfoldSupraspinal: msg.SkinfoldSupraspinal,
		SkinfoldAbdominal:   msg.SkinfoldAbdominal,
		SkinfoldThigh:       msg.SkinfoldThigh,
		SkinfoldCalf:        msg.SkinfoldCalf,

		GirthWaist:         msg.GirthWaist,
		GirthHip:           msg.GirthHip,
		GirthArmRelaxed:    msg.GirthArmRelaxed,
		GirthArmFlexed:     msg.GirthArmFlexed,
		GirthForearm:       msg.GirthForearm,
		GirthThorax:        msg.GirthThorax,
		GirthThighSuperior: msg.GirthThighSuperior,
		GirthThighMedial:   msg.GirthThighMedial,
		GirthCalf:          msg.GirthCalf,

		DiameterBiacromial:            msg.DiameterBiacromial,
		DiameterBiiliac:               msg.DiameterBiiliac,
		DiameterHumeral:               msg.DiameterHumeral,
		DiameterFemoral:               msg.DiameterFemoral,
		DiameterThoraxTransverse:      msg.DiameterThoraxTransverse,
		DiameterThoraxAnteroposterior: msg.DiameterThoraxAnteroposterior,
	}
}

// ResultMessage is the JSON wire form of a computed result, published to
// the results queue for the capture application. It carries the headline
// outputs; the full result lives in storage.
type ResultMessage struct {
	MeasurementID string `json:"measurement_id"`
	SubjectID     string `json:"subject_id"`
	ComputedAtMs  int64  `json:"computed_at_ms"`
	EngineVersion string `json:"engine_version"`

	BodyFatPct   *float64 `json:"body_fat_pct,omitempty"`
	FatMassKG    *float64 `json:"fat_mass_kg,omitempty"`
	LeanMassKG   *float64 `json:"lean_mass_kg,omitempty"`
	MuscleMassKG *float64 `json:"muscle_mass_kg,omitempty"`
	Endomorphy   *float64 `json:"endomorphy,omitempty"`
	Mesomorphy   *float64 `json:"mesomorphy,omitempty"`
	Ectomorphy   *float64 `json:"ectomorphy,omitempty"`
	TargetKcal   *float64 `json:"target_kcal,omitempty"`

	Warnings []WarningMessage `json:"warnings,omitempty"`
}

// WarningMessage is the wire form of one result warning.
type WarningMessage struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewResultMessage builds the wire form of a computed result.
func NewResultMessage(r *domain.CalculationResult) *ResultMessage {
	msg := &ResultMessage{
		MeasurementID: r.MeasurementID,
		SubjectID:     r.SubjectID,
		ComputedAtMs:  r.ComputedAtMs,
		EngineVersion: r.EngineVersion,

		BodyFatPct:   r.BodyFatPct,
		FatMassKG:    r.FatMassKG,
		LeanMassKG:   r.LeanMassKG,
		MuscleMassKG: r.MuscleMassKG,
		Endomorphy:   r.Endomorphy,
		Mesomorphy:   r.Mesomorphy,
		Ectomorphy:   r.Ectomorphy,
		TargetKcal:   r.TargetKcal,
	}
	for _, w := range r.Warnings {
		msg.Warnings = append(msg.Warnings, WarningMessage{
			Code:    string(w.Code),
			Field:   w.Field,
			Message: w.Message,
		})
	}
	return msg
}

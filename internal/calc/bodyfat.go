package calc

// siriBodyFat converts body density (g/mL) to body fat percent via the Siri
// equation: 495/density - 450. Returns nil if density is nil or zero.
func siriBodyFat(density *float64) *float64 {
	if density == nil || *density == 0 {
		return nil
	}
	bf := 495.0/(*density) - 450.0
	return &bf
}

// fatMassKG returns weight * bodyFat% / 100, nil if body fat is nil.
func fatMassKG(weightKG float64, bodyFatPct *float64) *float64 {
	if bodyFatPct == nil {
		return nil
	}
	fm := weightKG * *bodyFatPct / 100.0
	return &fm
}

// leanMassKG returns weight - fatMass, nil if fat mass is nil.
func leanMassKG(weightKG float64, fatMass *float64) *float64 {
	if fatMass == nil {
		return nil
	}
	lm := weightKG - *fatMass
	return &lm
}

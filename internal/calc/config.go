package calc

import (
	"os"
	"strconv"
)

// Config holds the tunable thresholds of the calculation engine.
// Values outside these thresholds produce warnings, never hard errors;
// the formulas themselves are fixed.
type Config struct {
	// BodyFatMinPct / BodyFatMaxPct bound the physiologically plausible
	// body fat range. Results outside it keep their value and are flagged.
	BodyFatMinPct float64
	BodyFatMaxPct float64

	// ComponentSumTolerancePct is the allowed deviation between the sum of
	// the five fractionation components and total body weight, in percent.
	ComponentSumTolerancePct float64

	// SkinfoldSuspiciousMM flags individual skinfold readings above this
	// value as suspicious. The reading is still used.
	SkinfoldSuspiciousMM float64

	// AgeSupportedMin / AgeSupportedMax bound the ages covered by the
	// density coefficient table. Ages outside are clamped to the nearest
	// band and flagged.
	AgeSupportedMin float64
	AgeSupportedMax float64
}

// DefaultConfig is the standard threshold set.
var DefaultConfig = Config{
	BodyFatMinPct:            2.0,
	BodyFatMaxPct:            60.0,
	ComponentSumTolerancePct: 2.0,
	SkinfoldSuspiciousMM:     60.0,
	AgeSupportedMin:          16.0,
	AgeSupportedMax:          72.0,
}

// ConfigFromEnv returns DefaultConfig with the warning thresholds
// overridden from the environment. Unset or malformed values keep the
// default. The age bounds mirror the coefficient table and are not
// tunable.
func ConfigFromEnv() Config {
	cfg := DefaultConfig
	overrideFloat(&cfg.BodyFatMinPct, "BODY_FAT_MIN_PCT")
	overrideFloat(&cfg.BodyFatMaxPct, "BODY_FAT_MAX_PCT")
	overrideFloat(&cfg.ComponentSumTolerancePct, "COMPONENT_SUM_TOLERANCE_PCT")
	overrideFloat(&cfg.SkinfoldSuspiciousMM, "SKINFOLD_SUSPICIOUS_MM")
	return cfg
}

func overrideFloat(dst *float64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*dst = f
}

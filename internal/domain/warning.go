package domain

// WarningCode identifies a non-fatal data quality finding attached to a result.
type WarningCode string

const (
	// WarningAgeOutOfRange: age fell outside the coefficient table and was
	// clamped to the nearest band.
	WarningAgeOutOfRange WarningCode = "AGE_OUT_OF_RANGE"

	// WarningBodyFatOutOfRange: computed body fat % is outside the plausible
	// range. The value is kept, not clipped.
	WarningBodyFatOutOfRange WarningCode = "BODYFAT_OUT_OF_RANGE"

	// WarningComponentSumMismatch: the five fractionation components do not
	// sum to body weight within tolerance. Components are not renormalized.
	WarningComponentSumMismatch WarningCode = "COMPONENT_SUM_MISMATCH"

	// WarningSkinfoldSuspicious: a skinfold reading exceeds the suspicious
	// cutoff. The reading is still used.
	WarningSkinfoldSuspicious WarningCode = "SKINFOLD_SUSPICIOUS"

	// WarningNoComputableOutput: no derived field could be computed from the
	// provided inputs.
	WarningNoComputableOutput WarningCode = "NO_COMPUTABLE_OUTPUT"
)

// IsValid checks if the warning code is a known value.
func (c WarningCode) IsValid() bool {
	switch c {
	case WarningAgeOutOfRange, WarningBodyFatOutOfRange, WarningComponentSumMismatch,
		WarningSkinfoldSuspicious, WarningNoComputableOutput:
		return true
	}
	return false
}

// Warning annotates a computed result with an out-of-domain finding.
// Warnings never abort a computation; malformed input does.
type Warning struct {
	Code    WarningCode
	Field   string // offending input or output field, empty when global
	Message string
}

// AllWarningCodes lists every known code in reporting order.
var AllWarningCodes = []WarningCode{
	WarningAgeOutOfRange,
	WarningBodyFatOutOfRange,
	WarningComponentSumMismatch,
	WarningSkinfoldSuspicious,
	WarningNoComputableOutput,
}

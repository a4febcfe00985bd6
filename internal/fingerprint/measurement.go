package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"bodycomp-lab/internal/domain"
)

// Measurement computes a deterministic fingerprint over every field of a
// measurement that feeds the calculation pipeline. Two measurements with
// the same fingerprint produce the same result; a stored result whose
// fingerprint differs from its measurement is stale.
// Returns the first 16 hex characters of the SHA256.
func Measurement(m *domain.MeasurementInput) string {
	var sb strings.Builder

	sb.WriteString(string(m.Sex))
	sb.WriteByte('|')
	sb.WriteString(formatValue(m.AgeYears))
	sb.WriteByte('|')
	sb.WriteString(string(m.Activity))
	sb.WriteByte('|')
	sb.WriteString(string(m.Objective))
	sb.WriteByte('|')
	sb.WriteString(formatValue(m.WeightKG))
	sb.WriteByte('|')
	sb.WriteString(formatValue(m.HeightCM))

	for _, group := range [][]domain.NamedValue{m.Skinfolds(), m.Girths(), m.Diameters()} {
		for _, site := range group {
			sb.WriteByte('|')
			sb.WriteString(site.Name)
			sb.WriteByte('=')
			if site.Value == nil {
				sb.WriteString("nil")
			} else {
				sb.WriteString(formatValue(*site.Value))
			}
		}
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])[:16]
}

// Stale reports whether a stored result no longer matches its measurement,
// either because the input changed or the engine version moved on.
func Stale(m *domain.MeasurementInput, r *domain.CalculationResult, engineVersion string) bool {
	if r == nil {
		return true
	}
	return r.InputFingerprint != Measurement(m) || r.EngineVersion != engineVersion
}

// formatValue renders a float in the shortest exact form so that the
// fingerprint is stable across platforms.
func formatValue(v float64) string {
	if v == float64(int64(v)) && v > -1e15 && v < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

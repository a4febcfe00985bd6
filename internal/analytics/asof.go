package analytics

import (
	"errors"

	"bodycomp-lab/internal/domain"
)

// Errors returned by as-of lookups.
var (
	ErrNoHistory           = errors.New("no history entries available")
	ErrInsufficientHistory = errors.New("need at least two measurements for a delta")
)

// EntryAt returns the subject's state as known at or before the target
// timestamp. Entries must be ordered by taken_at ASC, computed_at ASC, as the
// history store returns them; the backward scan then lands on the newest
// computation of the latest measurement at or before target.
// Returns (nil, nil) if no measurement precedes the target (valid case).
// Returns ErrNoHistory if the slice is empty.
func EntryAt(target int64, entries []*domain.CalculationHistoryEntry) (*domain.CalculationHistoryEntry, error) {
	if len(entries) == 0 {
		return nil, ErrNoHistory
	}

	// Find newest entry at or before target
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TakenAtMs <= target {
			return entries[i], nil
		}
	}

	// No measurement before target (valid case)
	return nil, nil
}

// WeightAt returns the subject's weight as of the target timestamp.
// Returns (nil, nil) if no measurement precedes the target.
func WeightAt(target int64, entries []*domain.CalculationHistoryEntry) (*float64, error) {
	e, err := EntryAt(target, entries)
	if err != nil || e == nil {
		return nil, err
	}
	return &e.WeightKG, nil
}

// BodyFatAt returns the subject's body fat as of the target timestamp.
// The as-of entry may itself lack a computable body fat; nil then means
// "unknown at that time", same as "no measurement yet".
func BodyFatAt(target int64, entries []*domain.CalculationHistoryEntry) (*float64, error) {
	e, err := EntryAt(target, entries)
	if err != nil || e == nil {
		return nil, err
	}
	return e.BodyFatPct, nil
}

// ProgressDelta is the change between two measurements of one subject.
type ProgressDelta struct {
	FromMeasurementID string
	ToMeasurementID   string
	FromTakenAtMs     int64
	ToTakenAtMs       int64

	WeightDeltaKG   float64
	BodyFatDeltaPct *float64 // nil when either endpoint lacks body fat
}

// LatestDelta returns the change between the two most recent measurements.
// Recomputations append rows instead of updating, so entries are first
// collapsed to the newest computation per measurement.
// Returns ErrNoHistory for an empty slice and ErrInsufficientHistory when
// fewer than two distinct measurements exist.
func LatestDelta(entries []*domain.CalculationHistoryEntry) (*ProgressDelta, error) {
	if len(entries) == 0 {
		return nil, ErrNoHistory
	}

	latest := latestPerMeasurement(entries)
	if len(latest) < 2 {
		return nil, ErrInsufficientHistory
	}

	from := latest[len(latest)-2]
	to := latest[len(latest)-1]

	d := &ProgressDelta{
		FromMeasurementID: from.MeasurementID,
		ToMeasurementID:   to.MeasurementID,
		FromTakenAtMs:     from.TakenAtMs,
		ToTakenAtMs:       to.TakenAtMs,
		WeightDeltaKG:     to.WeightKG - from.WeightKG,
	}
	if from.BodyFatPct != nil && to.BodyFatPct != nil {
		delta := *to.BodyFatPct - *from.BodyFatPct
		d.BodyFatDeltaPct = &delta
	}
	return d, nil
}

// latestPerMeasurement collapses history rows to the newest computation per
// measurement, preserving taken_at order. Entries must be ordered by
// taken_at ASC, computed_at ASC, so the last row per measurement wins.
func latestPerMeasurement(entries []*domain.CalculationHistoryEntry) []*domain.CalculationHistoryEntry {
	var out []*domain.CalculationHistoryEntry
	index := make(map[string]int)
	for _, e := range entries {
		if i, ok := index[e.MeasurementID]; ok {
			out[i] = e
			continue
		}
		index[e.MeasurementID] = len(out)
		out = append(out, e)
	}
	return out
}

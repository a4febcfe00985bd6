package verification

import (
	"context"
	"errors"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/storage"
)

var (
	// ErrResultNotFound is returned when no result exists for the measurement.
	ErrResultNotFound = errors.New("result not found")

	// ErrMeasurementNotFound is returned when the backing measurement is gone.
	ErrMeasurementNotFound = errors.New("measurement not found")
)

// RecomputeVerifier implements Verifier interface.
type RecomputeVerifier struct {
	resultStore      storage.ResultStore
	measurementStore storage.MeasurementStore
	calculator       *calc.Calculator
}

// RecomputeVerifierOptions contains configuration for creating a RecomputeVerifier.
type RecomputeVerifierOptions struct {
	ResultStore      storage.ResultStore
	MeasurementStore storage.MeasurementStore
	Calculator       *calc.Calculator
}

// NewRecomputeVerifier creates a new RecomputeVerifier.
func NewRecomputeVerifier(opts RecomputeVerifierOptions) *RecomputeVerifier {
	return &RecomputeVerifier{
		resultStore:      opts.ResultStore,
		measurementStore: opts.MeasurementStore,
		calculator:       opts.Calculator,
	}
}

// VerifyResult verifies a single stored result by recomputing it.
func (v *RecomputeVerifier) VerifyResult(ctx context.Context, measurementID string) (*VerificationResult, error) {
	// 1. Load stored result
	stored, err := v.resultStore.GetByMeasurementID(ctx, measurementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	// 2. Load the backing measurement
	m, err := v.measurementStore.GetByID(ctx, measurementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, err
	}

	// 3. Recompute
	recomputed, err := v.calculator.Compute(m)
	if err != nil {
		return nil, err
	}

	// 4. Compare
	divergences := CompareResults(stored, recomputed)

	return &VerificationResult{
		MeasurementID: measurementID,
		SubjectID:     stored.SubjectID,
		Match:         len(divergences) == 0,
		Divergences:   divergences,
	}, nil
}

// VerifyAll verifies all stored results.
func (v *RecomputeVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	results, err := v.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalResults: len(results),
		DriftByField: make(map[string]int),
		Results:      make([]VerificationResult, 0, len(results)),
	}

	for _, stored := range results {
		result, err := v.VerifyResult(ctx, stored.MeasurementID)
		if err != nil {
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				MeasurementID: stored.MeasurementID,
				SubjectID:     stored.SubjectID,
				Match:         false,
				Divergences: []FieldDivergence{
					{Field: "error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentResults++
			report.DriftByField["error"]++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedResults++
		} else {
			report.DivergentResults++
			for _, d := range result.Divergences {
				report.DriftByField[d.Field]++
			}
		}
	}

	return report, nil
}

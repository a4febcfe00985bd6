package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// ErrMalformedMessage marks payloads that can never become a valid
// measurement. Redelivery cannot fix them, so callers drop instead of
// requeueing.
var ErrMalformedMessage = errors.New("malformed measurement message")

// Processor runs one measurement through the store-and-compute path shared
// by the queue consumer and the file backfiller: decode, compute (which
// validates), persist the measurement, store the result, append history.
type Processor struct {
	calculator   *calc.Calculator
	measurements storage.MeasurementStore
	results      storage.ResultStore
	history      storage.ResultHistoryStore
}

// NewProcessor creates a processor over the given engine and stores.
func NewProcessor(calculator *calc.Calculator, measurements storage.MeasurementStore, results storage.ResultStore, history storage.ResultHistoryStore) *Processor {
	return &Processor{
		calculator:   calculator,
		measurements: measurements,
		results:      results,
		history:      history,
	}
}

// Process decodes and processes one measurement payload. Errors wrapping
// ErrMalformedMessage mean the payload is beyond repair; everything else
// is a storage fault worth retrying.
func (p *Processor) Process(ctx context.Context, body []byte) (*domain.CalculationResult, error) {
	var msg MeasurementMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode: %v: %w", err, ErrMalformedMessage)
	}
	return p.ProcessMessage(ctx, &msg)
}

// ProcessMessage is Process for an already-decoded message.
func (p *Processor) ProcessMessage(ctx context.Context, msg *MeasurementMessage) (*domain.CalculationResult, error) {
	if msg.MeasurementID == "" || msg.SubjectID == "" {
		return nil, fmt.Errorf("measurement_id and subject_id are required: %w", ErrMalformedMessage)
	}

	// Compute validates structurally; nothing is persisted for a
	// measurement the engine rejects.
	m := msg.ToDomain()
	r, err := p.calculator.Compute(m)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedMessage)
	}

	if err := p.measurements.Insert(ctx, m); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("insert measurement %s: %w", m.MeasurementID, err)
		}
		// Same ID seen before: a redelivery or a correction. Replace
		// wholesale; the result upsert below brings derived state in line
		// either way.
		if err := p.measurements.Update(ctx, m); err != nil {
			return nil, fmt.Errorf("update measurement %s: %w", m.MeasurementID, err)
		}
	}

	if err := p.results.Upsert(ctx, r); err != nil {
		return nil, fmt.Errorf("store result %s: %w", m.MeasurementID, err)
	}
	if err := p.history.Append(ctx, []*domain.CalculationHistoryEntry{domain.NewHistoryEntry(m, r)}); err != nil {
		return nil, fmt.Errorf("append history %s: %w", m.MeasurementID, err)
	}
	return r, nil
}

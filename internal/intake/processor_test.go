package intake

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/storage/memory"
)

func ptr(v float64) *float64 {
	return &v
}

// validMessage builds a computable female capture with the
// Durnin-Womersley skinfold set.
func validMessage(id, subject string) *MeasurementMessage {
	return &MeasurementMessage{
		MeasurementID: id,
		SubjectID:     subject,
		TakenAtMs:     1_700_000_000_000,
		Sex:           "FEMALE",
		AgeYears:      30,
		WeightKG:      62.0,
		HeightCM:      167.0,

		SkinfoldTriceps:     ptr(18.5),
		SkinfoldBiceps:      ptr(11.0),
		SkinfoldSubscapular: ptr(16.0),
		SkinfoldSuprailiac:  ptr(15.0),
	}
}

func mustBody(t *testing.T, msg *MeasurementMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

type testStores struct {
	measurements *memory.MeasurementStore
	results      *memory.ResultStore
	history      *memory.ResultHistoryStore
}

func newTestStores() *testStores {
	results := memory.NewResultStore()
	return &testStores{
		measurements: memory.NewMeasurementStore().WithResultCascade(results),
		results:      results,
		history:      memory.NewResultHistoryStore(),
	}
}

func newTestProcessor(s *testStores) *Processor {
	return NewProcessor(calc.NewCalculator(calc.DefaultConfig), s.measurements, s.results, s.history)
}

func TestProcessor_ProcessStoresEverything(t *testing.T) {
	s := newTestStores()
	p := newTestProcessor(s)
	ctx := context.Background()

	r, err := p.Process(ctx, mustBody(t, validMessage("m1", "s1")))
	require.NoError(t, err)
	require.NotNil(t, r)

	m, err := s.measurements.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "s1", m.SubjectID)
	assert.Equal(t, 62.0, m.WeightKG)

	stored, err := s.results.GetByMeasurementID(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, stored.BodyFatPct)
	assert.Equal(t, *r.BodyFatPct, *stored.BodyFatPct)
	assert.NotEmpty(t, stored.InputFingerprint)

	entries, err := s.history.GetBySubject(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].MeasurementID)
	assert.Equal(t, 62.0, entries[0].WeightKG)
	require.NotNil(t, entries[0].BodyFatPct)
	assert.Equal(t, *r.BodyFatPct, *entries[0].BodyFatPct)
}

func TestProcessor_MalformedJSON(t *testing.T) {
	s := newTestStores()
	p := newTestProcessor(s)
	ctx := context.Background()

	_, err := p.Process(ctx, []byte(`{"measurement_id": `))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedMessage)

	all, err := s.measurements.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProcessor_MissingIdentifiers(t *testing.T) {
	p := newTestProcessor(newTestStores())
	ctx := context.Background()

	msg := validMessage("", "s1")
	_, err := p.ProcessMessage(ctx, msg)
	assert.ErrorIs(t, err, ErrMalformedMessage)

	msg = validMessage("m1", "")
	_, err = p.ProcessMessage(ctx, msg)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestProcessor_RejectsInvalidMeasurement(t *testing.T) {
	s := newTestStores()
	p := newTestProcessor(s)
	ctx := context.Background()

	msg := validMessage("m1", "s1")
	msg.WeightKG = -5

	_, err := p.ProcessMessage(ctx, msg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedMessage)

	// Nothing persisted for a rejected measurement.
	all, err := s.measurements.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	results, err := s.results.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessor_RedeliveryIsIdempotent(t *testing.T) {
	s := newTestStores()
	p := newTestProcessor(s)
	ctx := context.Background()

	body := mustBody(t, validMessage("m1", "s1"))
	first, err := p.Process(ctx, body)
	require.NoError(t, err)
	second, err := p.Process(ctx, body)
	require.NoError(t, err)

	assert.Equal(t, first.InputFingerprint, second.InputFingerprint)

	all, err := s.measurements.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	results, err := s.results.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// History is append-only: every computation leaves a row.
	entries, err := s.history.GetBySubject(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestProcessor_CorrectionReplacesWholesale(t *testing.T) {
	s := newTestStores()
	p := newTestProcessor(s)
	ctx := context.Background()

	first, err := p.ProcessMessage(ctx, validMessage("m1", "s1"))
	require.NoError(t, err)

	corrected := validMessage("m1", "s1")
	corrected.WeightKG = 64.5
	second, err := p.ProcessMessage(ctx, corrected)
	require.NoError(t, err)

	m, err := s.measurements.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 64.5, m.WeightKG)

	stored, err := s.results.GetByMeasurementID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, second.InputFingerprint, stored.InputFingerprint)
	assert.NotEqual(t, first.InputFingerprint, stored.InputFingerprint)
}

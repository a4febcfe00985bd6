package clickhouse

import (
	"context"
	"fmt"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// ResultHistoryStore implements storage.ResultHistoryStore using ClickHouse.
// The backing MergeTree table is append-only; recomputations of the same
// measurement coexist as separate rows.
type ResultHistoryStore struct {
	conn *Conn
}

// NewResultHistoryStore creates a new ResultHistoryStore.
func NewResultHistoryStore(conn *Conn) *ResultHistoryStore {
	return &ResultHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ResultHistoryStore = (*ResultHistoryStore)(nil)

// Append adds history entries.
func (s *ResultHistoryStore) Append(ctx context.Context, entries []*domain.CalculationHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e == nil || e.SubjectID == "" || e.MeasurementID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO calculation_history (
			subject_id, measurement_id, taken_at_ms, computed_at_ms,
			weight_kg, body_fat_pct, lean_mass_kg, muscle_mass_kg,
			sum6_skinfolds, target_kcal, warning_count, engine_version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range entries {
		err = batch.Append(
			e.SubjectID, e.MeasurementID, uint64(e.TakenAtMs), uint64(e.ComputedAtMs),
			e.WeightKG, e.BodyFatPct, e.LeanMassKG, e.MuscleMassKG,
			e.Sum6Skinfolds, e.TargetKcal, uint32(e.WarningCount), e.EngineVersion,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySubject retrieves all entries for a subject, ordered by
// taken_at ASC, then computed_at ASC.
func (s *ResultHistoryStore) GetBySubject(ctx context.Context, subjectID string) ([]*domain.CalculationHistoryEntry, error) {
	query := `
		SELECT subject_id, measurement_id, taken_at_ms, computed_at_ms,
		       weight_kg, body_fat_pct, lean_mass_kg, muscle_mass_kg,
		       sum6_skinfolds, target_kcal, warning_count, engine_version
		FROM calculation_history
		WHERE subject_id = ?
		ORDER BY taken_at_ms ASC, computed_at_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query by subject: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// GetByTimeRange retrieves entries for a subject with taken_at within [start, end] (inclusive).
func (s *ResultHistoryStore) GetByTimeRange(ctx context.Context, subjectID string, start, end int64) ([]*domain.CalculationHistoryEntry, error) {
	query := `
		SELECT subject_id, measurement_id, taken_at_ms, computed_at_ms,
		       weight_kg, body_fat_pct, lean_mass_kg, muscle_mass_kg,
		       sum6_skinfolds, target_kcal, warning_count, engine_version
		FROM calculation_history
		WHERE subject_id = ? AND taken_at_ms >= ? AND taken_at_ms <= ?
		ORDER BY taken_at_ms ASC, computed_at_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, subjectID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanHistory scans multiple rows into a slice.
func scanHistory(rows chRows) ([]*domain.CalculationHistoryEntry, error) {
	var entries []*domain.CalculationHistoryEntry

	for rows.Next() {
		var e domain.CalculationHistoryEntry
		var takenAtMs, computedAtMs uint64
		var warningCount uint32

		err := rows.Scan(
			&e.SubjectID, &e.MeasurementID, &takenAtMs, &computedAtMs,
			&e.WeightKG, &e.BodyFatPct, &e.LeanMassKG, &e.MuscleMassKG,
			&e.Sum6Skinfolds, &e.TargetKcal, &warningCount, &e.EngineVersion,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		e.TakenAtMs = int64(takenAtMs)
		e.ComputedAtMs = int64(computedAtMs)
		e.WarningCount = int(warningCount)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return entries, nil
}

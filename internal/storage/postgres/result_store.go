package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const resultColumns = `
	measurement_id, subject_id,
	sum4_skinfolds, sum6_skinfolds, sum3_skinfolds, sum8_skinfolds,
	body_density, body_fat_pct, fat_mass_kg, lean_mass_kg,
	muscle_mass_kg, adipose_mass_kg, bone_mass_kg, residual_mass_kg, skin_mass_kg,
	muscle_mass_pct, adipose_mass_pct, bone_mass_pct, residual_mass_pct, skin_mass_pct,
	component_sum_kg, component_sum_deviation_pct,
	endomorphy, mesomorphy, ectomorphy,
	bmr_kcal, maintenance_kcal, target_kcal, protein_g, fat_g, carbs_g,
	warnings, computed_at_ms, engine_version, input_fingerprint`

// warningRow is the JSONB wire shape for one warning.
type warningRow struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func encodeWarnings(ws []domain.Warning) ([]byte, error) {
	rows := make([]warningRow, 0, len(ws))
	for _, w := range ws {
		rows = append(rows, warningRow{Code: string(w.Code), Field: w.Field, Message: w.Message})
	}
	return json.Marshal(rows)
}

func decodeWarnings(data []byte) ([]domain.Warning, error) {
	var rows []warningRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ws := make([]domain.Warning, 0, len(rows))
	for _, r := range rows {
		ws = append(ws, domain.Warning{Code: domain.WarningCode(r.Code), Field: r.Field, Message: r.Message})
	}
	return ws, nil
}

// Upsert inserts or replaces the result for a measurement.
func (s *ResultStore) Upsert(ctx context.Context, r *domain.CalculationResult) error {
	if r == nil || r.MeasurementID == "" || r.SubjectID == "" {
		return storage.ErrInvalidInput
	}

	warnings, err := encodeWarnings(r.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	query := `
		INSERT INTO calculation_results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
		        $29, $30, $31, $32, $33, $34, $35)
		ON CONFLICT (measurement_id) DO UPDATE SET
			subject_id = EXCLUDED.subject_id,
			sum4_skinfolds = EXCLUDED.sum4_skinfolds,
			sum6_skinfolds = EXCLUDED.sum6_skinfolds,
			sum3_skinfolds = EXCLUDED.sum3_skinfolds,
			sum8_skinfolds = EXCLUDED.sum8_skinfolds,
			body_density = EXCLUDED.body_density,
			body_fat_pct = EXCLUDED.body_fat_pct,
			fat_mass_kg = EXCLUDED.fat_mass_kg,
			lean_mass_kg = EXCLUDED.lean_mass_kg,
			muscle_mass_kg = EXCLUDED.muscle_mass_kg,
			adipose_mass_kg = EXCLUDED.adipose_mass_kg,
			bone_mass_kg = EXCLUDED.bone_mass_kg,
			residual_mass_kg = EXCLUDED.residual_mass_kg,
			skin_mass_kg = EXCLUDED.skin_mass_kg,
			muscle_mass_pct = EXCLUDED.muscle_mass_pct,
			adipose_mass_pct = EXCLUDED.adipose_mass_pct,
			bone_mass_pct = EXCLUDED.bone_mass_pct,
			residual_mass_pct = EXCLUDED.residual_mass_pct,
			skin_mass_pct = EXCLUDED.skin_mass_pct,
			component_sum_kg = EXCLUDED.component_sum_kg,
			component_sum_deviation_pct = EXCLUDED.component_sum_deviation_pct,
			endomorphy = EXCLUDED.endomorphy,
			mesomorphy = EXCLUDED.mesomorphy,
			ectomorphy = EXCLUDED.ectomorphy,
			bmr_kcal = EXCLUDED.bmr_kcal,
			maintenance_kcal = EXCLUDED.maintenance_kcal,
			target_kcal = EXCLUDED.target_kcal,
			protein_g = EXCLUDED.protein_g,
			fat_g = EXCLUDED.fat_g,
			carbs_g = EXCLUDED.carbs_g,
			warnings = EXCLUDED.warnings,
			computed_at_ms = EXCLUDED.computed_at_ms,
			engine_version = EXCLUDED.engine_version,
			input_fingerprint = EXCLUDED.input_fingerprint
	`

	_, err = s.pool.Exec(ctx, query,
		r.MeasurementID, r.SubjectID,
		r.Sum4Skinfolds, r.Sum6Skinfolds, r.Sum3Skinfolds, r.Sum8Skinfolds,
		r.BodyDensity, r.BodyFatPct, r.FatMassKG, r.LeanMassKG,
		r.MuscleMassKG, r.AdiposeMassKG, r.BoneMassKG, r.ResidualMassKG, r.SkinMassKG,
		r.MuscleMassPct, r.AdiposeMassPct, r.BoneMassPct, r.ResidualMassPct, r.SkinMassPct,
		r.ComponentSumKG, r.ComponentSumDeviationPct,
		r.Endomorphy, r.Mesomorphy, r.Ectomorphy,
		r.BMRKcal, r.MaintenanceKcal, r.TargetKcal, r.ProteinG, r.FatG, r.CarbsG,
		warnings, r.ComputedAtMs, r.EngineVersion, r.InputFingerprint,
	)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// GetByMeasurementID retrieves the result for a measurement. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByMeasurementID(ctx context.Context, measurementID string) (*domain.CalculationResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM calculation_results
		WHERE measurement_id = $1
	`

	row := s.pool.QueryRow(ctx, query, measurementID)
	r, err := scanResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get result by measurement id: %w", err)
	}
	return r, nil
}

// GetBySubject retrieves all results for a subject, ordered by computed_at ASC.
func (s *ResultStore) GetBySubject(ctx context.Context, subjectID string) ([]*domain.CalculationResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM calculation_results
		WHERE subject_id = $1
		ORDER BY computed_at_ms ASC, measurement_id ASC
	`

	rows, err := s.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get results by subject: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetAll retrieves all results, ordered by computed_at ASC.
func (s *ResultStore) GetAll(ctx context.Context) ([]*domain.CalculationResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM calculation_results
		ORDER BY computed_at_ms ASC, measurement_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// DeleteByMeasurementID removes the result for a measurement.
// Returns ErrNotFound if not exists.
func (s *ResultStore) DeleteByMeasurementID(ctx context.Context, measurementID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM calculation_results WHERE measurement_id = $1`, measurementID)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanResult scans a single row into a CalculationResult.
func scanResult(row pgx.Row) (*domain.CalculationResult, error) {
	var r domain.CalculationResult
	var warnings []byte

	err := row.Scan(
		&r.MeasurementID, &r.SubjectID,
		&r.Sum4Skinfolds, &r.Sum6Skinfolds, &r.Sum3Skinfolds, &r.Sum8Skinfolds,
		&r.BodyDensity, &r.BodyFatPct, &r.FatMassKG, &r.LeanMassKG,
		&r.MuscleMassKG, &r.AdiposeMassKG, &r.BoneMassKG, &r.ResidualMassKG, &r.SkinMassKG,
		&r.MuscleMassPct, &r.AdiposeMassPct, &r.BoneMassPct, &r.ResidualMassPct, &r.SkinMassPct,
		&r.ComponentSumKG, &r.ComponentSumDeviationPct,
		&r.Endomorphy, &r.Mesomorphy, &r.Ectomorphy,
		&r.BMRKcal, &r.MaintenanceKcal, &r.TargetKcal, &r.ProteinG, &r.FatG, &r.CarbsG,
		&warnings, &r.ComputedAtMs, &r.EngineVersion, &r.InputFingerprint,
	)
	if err != nil {
		return nil, err
	}

	r.Warnings, err = decodeWarnings(warnings)
	if err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	return &r, nil
}

// scanResults scans multiple rows into a slice of CalculationResult.
func scanResults(rows pgx.Rows) ([]*domain.CalculationResult, error) {
	var results []*domain.CalculationResult

	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return results, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// MeasurementStore implements storage.MeasurementStore using PostgreSQL.
type MeasurementStore struct {
	pool *Pool
}

// NewMeasurementStore creates a new MeasurementStore.
func NewMeasurementStore(pool *Pool) *MeasurementStore {
	return &MeasurementStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MeasurementStore = (*MeasurementStore)(nil)

const measurementColumns = `
	measurement_id, subject_id, taken_at_ms, sex, age_years, activity, objective,
	weight_kg, height_cm,
	skinfold_triceps, skinfold_biceps, skinfold_subscapular, skinfold_suprailiac,
	skinfold_supraspinal, skinfold_abdominal, skinfold_thigh, skinfold_calf,
	girth_waist, girth_hip, girth_arm_relaxed, girth_arm_flexed, girth_forearm,
	girth_thorax, girth_thigh_superior, girth_thigh_medial, girth_calf,
	diameter_biacromial, diameter_biiliac, diameter_humeral, diameter_femoral,
	diameter_thorax_transverse, diameter_thorax_anteroposterior`

// measurementArgs lists the values in measurementColumns order.
func measurementArgs(m *domain.MeasurementInput) []any {
	return []any{
		m.MeasurementID, m.SubjectID, m.TakenAtMs, string(m.Sex), m.AgeYears,
		string(m.Activity), string(m.Objective),
		m.WeightKG, m.HeightCM,
		m.SkinfoldTriceps, m.SkinfoldBiceps, m.SkinfoldSubscapular, m.SkinfoldSuprailiac,
		m.SkinfoldSupraspinal, m.SkinfoldAbdominal, m.SkinfoldThigh, m.SkinfoldCalf,
		m.GirthWaist, m.GirthHip, m.GirthArmRelaxed, m.GirthArmFlexed, m.GirthForearm,
		m.GirthThorax, m.GirthThighSuperior, m.GirthThighMedial, m.GirthCalf,
		m.DiameterBiacromial, m.DiameterBiiliac, m.DiameterHumeral, m.DiameterFemoral,
		m.DiameterThoraxTransverse, m.DiameterThoraxAnteroposterior,
	}
}

// Insert adds a new measurement. Returns ErrDuplicateKey if measurement_id exists.
func (s *MeasurementStore) Insert(ctx context.Context, m *domain.MeasurementInput) error {
	if m == nil || m.MeasurementID == "" || m.SubjectID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO measurements (` + measurementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
	`

	_, err := s.pool.Exec(ctx, query, measurementArgs(m)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

// GetByID retrieves a measurement by its ID. Returns ErrNotFound if not exists.
func (s *MeasurementStore) GetByID(ctx context.Context, measurementID string) (*domain.MeasurementInput, error) {
	query := `
		SELECT ` + measurementColumns + `
		FROM measurements
		WHERE measurement_id = $1
	`

	row := s.pool.QueryRow(ctx, query, measurementID)
	m, err := scanMeasurement(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get measurement by id: %w", err)
	}
	return m, nil
}

// GetBySubject retrieves all measurements for a subject, ordered by taken_at ASC.
func (s *MeasurementStore) GetBySubject(ctx context.Context, subjectID string) ([]*domain.MeasurementInput, error) {
	query := `
		SELECT ` + measurementColumns + `
		FROM measurements
		WHERE subject_id = $1
		ORDER BY taken_at_ms ASC, measurement_id ASC
	`

	rows, err := s.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get measurements by subject: %w", err)
	}
	defer rows.Close()

	return scanMeasurements(rows)
}

// GetAll retrieves all measurements, ordered by taken_at ASC.
func (s *MeasurementStore) GetAll(ctx context.Context) ([]*domain.MeasurementInput, error) {
	query := `
		SELECT ` + measurementColumns + `
		FROM measurements
		ORDER BY taken_at_ms ASC, measurement_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all measurements: %w", err)
	}
	defer rows.Close()

	return scanMeasurements(rows)
}

// Update replaces an existing measurement. Returns ErrNotFound if not exists.
func (s *MeasurementStore) Update(ctx context.Context, m *domain.MeasurementInput) error {
	if m == nil || m.MeasurementID == "" || m.SubjectID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE measurements SET
			subject_id = $2, taken_at_ms = $3, sex = $4, age_years = $5,
			activity = $6, objective = $7, weight_kg = $8, height_cm = $9,
			skinfold_triceps = $10, skinfold_biceps = $11, skinfold_subscapular = $12,
			skinfold_suprailiac = $13, skinfold_supraspinal = $14, skinfold_abdominal = $15,
			skinfold_thigh = $16, skinfold_calf = $17,
			girth_waist = $18, girth_hip = $19, girth_arm_relaxed = $20,
			girth_arm_flexed = $21, girth_forearm = $22, girth_thorax = $23,
			girth_thigh_superior = $24, girth_thigh_medial = $25, girth_calf = $26,
			diameter_biacromial = $27, diameter_biiliac = $28, diameter_humeral = $29,
			diameter_femoral = $30, diameter_thorax_transverse = $31,
			diameter_thorax_anteroposterior = $32
		WHERE measurement_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, measurementArgs(m)...)
	if err != nil {
		return fmt.Errorf("update measurement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a measurement. The foreign key cascades to its result.
// Returns ErrNotFound if not exists.
func (s *MeasurementStore) Delete(ctx context.Context, measurementID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM measurements WHERE measurement_id = $1`, measurementID)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanMeasurement scans a single row into a MeasurementInput.
func scanMeasurement(row pgx.Row) (*domain.MeasurementInput, error) {
	var m domain.MeasurementInput
	var sexStr, activityStr, objectiveStr string

	err := row.Scan(
		&m.MeasurementID, &m.SubjectID, &m.TakenAtMs, &sexStr, &m.AgeYears,
		&activityStr, &objectiveStr,
		&m.WeightKG, &m.HeightCM,
		&m.SkinfoldTriceps, &m.SkinfoldBiceps, &m.SkinfoldSubscapular, &m.SkinfoldSuprailiac,
		&m.SkinfoldSupraspinal, &m.SkinfoldAbdominal, &m.SkinfoldThigh, &m.SkinfoldCalf,
		&m.GirthWaist, &m.GirthHip, &m.GirthArmRelaxed, &m.GirthArmFlexed, &m.GirthForearm,
		&m.GirthThorax, &m.GirthThighSuperior, &m.GirthThighMedial, &m.GirthCalf,
		&m.DiameterBiacromial, &m.DiameterBiiliac, &m.DiameterHumeral, &m.DiameterFemoral,
		&m.DiameterThoraxTransverse, &m.DiameterThoraxAnteroposterior,
	)
	if err != nil {
		return nil, err
	}

	m.Sex = domain.Sex(sexStr)
	m.Activity = domain.ActivityLevel(activityStr)
	m.Objective = domain.Objective(objectiveStr)
	return &m, nil
}

// scanMeasurements scans multiple rows into a slice of MeasurementInput.
func scanMeasurements(rows pgx.Rows) ([]*domain.MeasurementInput, error) {
	var measurements []*domain.MeasurementInput

	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan measurement row: %w", err)
		}
		measurements = append(measurements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurement rows: %w", err)
	}

	return measurements, nil
}

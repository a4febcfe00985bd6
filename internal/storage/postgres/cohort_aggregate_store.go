package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// CohortAggregateStore implements storage.CohortAggregateStore using PostgreSQL.
type CohortAggregateStore struct {
	pool *Pool
}

// NewCohortAggregateStore creates a new CohortAggregateStore.
func NewCohortAggregateStore(pool *Pool) *CohortAggregateStore {
	return &CohortAggregateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CohortAggregateStore = (*CohortAggregateStore)(nil)

const aggregateColumns = `
	sex, objective, generated_at_ms,
	total_measurements, total_subjects, body_fat_computable,
	fractionation_complete, somatotype_complete, with_warnings,
	body_fat_mean, body_fat_median, body_fat_p10, body_fat_p25,
	body_fat_p75, body_fat_p90, body_fat_min, body_fat_max, body_fat_stddev,
	weight_mean, lean_mass_mean, muscle_mass_mean,
	endomorphy_mean, mesomorphy_mean, ectomorphy_mean,
	age_out_of_range_count, body_fat_out_of_range_count,
	component_sum_mismatch_count, skinfold_suspicious_count`

// Insert adds a new aggregate snapshot. Returns ErrDuplicateKey if key exists.
func (s *CohortAggregateStore) Insert(ctx context.Context, a *domain.CohortAggregate) error {
	if a == nil || a.Sex == "" || a.Objective == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO cohort_aggregates (` + aggregateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`

	_, err := s.pool.Exec(ctx, query,
		string(a.Sex), string(a.Objective), a.GeneratedAtMs,
		a.TotalMeasurements, a.TotalSubjects, a.BodyFatComputable,
		a.FractionationComplete, a.SomatotypeComplete, a.WithWarnings,
		a.BodyFatMean, a.BodyFatMedian, a.BodyFatP10, a.BodyFatP25,
		a.BodyFatP75, a.BodyFatP90, a.BodyFatMin, a.BodyFatMax, a.BodyFatStddev,
		a.WeightMean, a.LeanMassMean, a.MuscleMassMean,
		a.EndomorphyMean, a.MesomorphyMean, a.EctomorphyMean,
		a.AgeOutOfRangeCount, a.BodyFatOutOfRangeCount,
		a.ComponentSumMismatchCount, a.SkinfoldSuspiciousCount,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert cohort aggregate: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent snapshot for a cohort.
// Returns ErrNotFound if no snapshot exists.
func (s *CohortAggregateStore) GetLatest(ctx context.Context, sex domain.Sex, objective domain.Objective) (*domain.CohortAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM cohort_aggregates
		WHERE sex = $1 AND objective = $2
		ORDER BY generated_at_ms DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, string(sex), string(objective))
	a, err := scanAggregate(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest cohort aggregate: %w", err)
	}
	return a, nil
}

// GetAll retrieves all snapshots, ordered by generated_at ASC.
func (s *CohortAggregateStore) GetAll(ctx context.Context) ([]*domain.CohortAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM cohort_aggregates
		ORDER BY generated_at_ms ASC, sex ASC, objective ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all cohort aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []*domain.CohortAggregate
	for rows.Next() {
		a, err := scanAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		aggregates = append(aggregates, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}

	return aggregates, nil
}

// scanAggregate scans a single row into a CohortAggregate.
func scanAggregate(row pgx.Row) (*domain.CohortAggregate, error) {
	var a domain.CohortAggregate
	var sexStr, objectiveStr string

	err := row.Scan(
		&sexStr, &objectiveStr, &a.GeneratedAtMs,
		&a.TotalMeasurements, &a.TotalSubjects, &a.BodyFatComputable,
		&a.FractionationComplete, &a.SomatotypeComplete, &a.WithWarnings,
		&a.BodyFatMean, &a.BodyFatMedian, &a.BodyFatP10, &a.BodyFatP25,
		&a.BodyFatP75, &a.BodyFatP90, &a.BodyFatMin, &a.BodyFatMax, &a.BodyFatStddev,
		&a.WeightMean, &a.LeanMassMean, &a.MuscleMassMean,
		&a.EndomorphyMean, &a.MesomorphyMean, &a.EctomorphyMean,
		&a.AgeOutOfRangeCount, &a.BodyFatOutOfRangeCount,
		&a.ComponentSumMismatchCount, &a.SkinfoldSuspiciousCount,
	)
	if err != nil {
		return nil, err
	}

	a.Sex = domain.Sex(sexStr)
	a.Objective = domain.Objective(objectiveStr)
	return &a, nil
}

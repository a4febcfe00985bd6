package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

func testAggregate(sex domain.Sex, objective domain.Objective, generatedAt int64) *domain.CohortAggregate {
	return &domain.CohortAggregate{
		Sex:                     sex,
		Objective:               objective,
		GeneratedAtMs:           generatedAt,
		TotalMeasurements:       12,
		TotalSubjects:           9,
		BodyFatComputable:       10,
		FractionationComplete:   7,
		SomatotypeComplete:      8,
		WithWarnings:            2,
		BodyFatMean:             14.2,
		BodyFatMedian:           13.8,
		BodyFatP10:              9.1,
		BodyFatP25:              11.0,
		BodyFatP75:              17.5,
		BodyFatP90:              20.3,
		BodyFatMin:              7.2,
		BodyFatMax:              24.8,
		BodyFatStddev:           4.1,
		WeightMean:              74.6,
		LeanMassMean:            ptr(62.3),
		MuscleMassMean:          ptr(35.9),
		EndomorphyMean:          ptr(2.8),
		MesomorphyMean:          ptr(4.6),
		EctomorphyMean:          ptr(2.1),
		AgeOutOfRangeCount:      1,
		SkinfoldSuspiciousCount: 1,
	}
}

func TestCohortAggregateStore_InsertAndGetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCohortAggregateStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testAggregate(domain.SexMale, domain.ObjectiveMaintain, 1000)))
	require.NoError(t, store.Insert(ctx, testAggregate(domain.SexMale, domain.ObjectiveMaintain, 3000)))
	require.NoError(t, store.Insert(ctx, testAggregate(domain.SexMale, domain.ObjectiveMaintain, 2000)))
	require.NoError(t, store.Insert(ctx, testAggregate(domain.SexFemale, domain.ObjectiveLoss, 5000)))

	latest, err := store.GetLatest(ctx, domain.SexMale, domain.ObjectiveMaintain)
	require.NoError(t, err)

	assert.Equal(t, int64(3000), latest.GeneratedAtMs)
	assert.Equal(t, 12, latest.TotalMeasurements)
	assert.Equal(t, 14.2, latest.BodyFatMean)
	require.NotNil(t, latest.LeanMassMean)
	assert.Equal(t, 62.3, *latest.LeanMassMean)
	require.NotNil(t, latest.MesomorphyMean)
	assert.Equal(t, 4.6, *latest.MesomorphyMean)
}

func TestCohortAggregateStore_NullableMeans(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCohortAggregateStore(pool)
	ctx := context.Background()

	// Cohort with no fractionation or somatotype coverage
	a := testAggregate(domain.SexFemale, domain.ObjectiveGain, 1000)
	a.LeanMassMean = nil
	a.MuscleMassMean = nil
	a.EndomorphyMean = nil
	a.MesomorphyMean = nil
	a.EctomorphyMean = nil
	require.NoError(t, store.Insert(ctx, a))

	latest, err := store.GetLatest(ctx, domain.SexFemale, domain.ObjectiveGain)
	require.NoError(t, err)
	assert.Nil(t, latest.LeanMassMean)
	assert.Nil(t, latest.MuscleMassMean)
	assert.Nil(t, latest.EndomorphyMean)
}

func TestCohortAggregateStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCohortAggregateStore(pool)
	ctx := context.Background()

	a := testAggregate(domain.SexMale, domain.ObjectiveLoss, 1000)
	require.NoError(t, store.Insert(ctx, a))

	err := store.Insert(ctx, a)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCohortAggregateStore_GetLatestNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCohortAggregateStore(pool)
	ctx := context.Background()

	_, err := store.GetLatest(ctx, domain.SexMale, domain.ObjectiveGain)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCohortAggregateStore_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCohortAggregateStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testAggregate(domain.SexMale, domain.ObjectiveMaintain, 2000)))
	require.NoError(t, store.Insert(ctx, testAggregate(domain.SexFemale, domain.ObjectiveLoss, 1000)))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1000), all[0].GeneratedAtMs)
	assert.Equal(t, int64(2000), all[1].GeneratedAtMs)
}

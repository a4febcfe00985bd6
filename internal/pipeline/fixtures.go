package pipeline

import (
	"context"

	"bodycomp-lab/internal/domain"
	"bodycomp-lab/internal/storage"
)

// LoadFixtures populates the measurement store with a demonstration cohort.
// Results, history and aggregates are produced by the pipeline itself, so
// fixture mode only seeds raw captures.
func LoadFixtures(ctx context.Context, measurementStore storage.MeasurementStore) error {
	if err := loadMaleCohort(ctx, measurementStore); err != nil {
		return err
	}
	if err := loadFemaleCohort(ctx, measurementStore); err != nil {
		return err
	}
	return loadEdgeCases(ctx, measurementStore)
}

func loadMaleCohort(ctx context.Context, store storage.MeasurementStore) error {
	measurements := []*domain.MeasurementInput{
		// Complete capture of a lean athletic male. The five fractionation
		// components for this profile close to within 0.3% of body weight.
		{
			MeasurementID: "meas-101",
			SubjectID:     "subj-01",
			TakenAtMs:     1704067200000, // 2024-01-01 00:00:00 UTC
			Sex:           domain.SexMale,
			AgeYears:      28,
			Activity:      domain.ActivityModerate,
			Objective:     domain.ObjectiveMaintain,
			WeightKG:      78.4,
			HeightCM:      180.0,

			SkinfoldTriceps:     ptr(5.0),
			SkinfoldBiceps:      ptr(3.5),
			SkinfoldSubscapular: ptr(6.0),
			SkinfoldSuprailiac:  ptr(7.0),
			SkinfoldSupraspinal: ptr(5.5),
			SkinfoldAbdominal:   ptr(9.0),
			SkinfoldThigh:       ptr(7.0),
			SkinfoldCalf:        ptr(5.0),

			GirthWaist:         ptr(81.5),
			GirthHip:           ptr(95.0),
			GirthArmRelaxed:    ptr(32.0),
			GirthArmFlexed:     ptr(34.0),
			GirthForearm:       ptr(27.8),
			GirthThorax:        ptr(100.5),
			GirthThighSuperior: ptr(59.0),
			GirthThighMedial:   ptr(56.5),
			GirthCalf:          ptr(37.8),

			DiameterBiacromial:            ptr(41.6),
			DiameterBiiliac:               ptr(28.5),
			DiameterHumeral:               ptr(7.1),
			DiameterFemoral:               ptr(9.9),
			DiameterThoraxTransverse:      ptr(29.5),
			DiameterThoraxAnteroposterior: ptr(19.5),
		},
		{
			MeasurementID: "meas-102",
			SubjectID:     "subj-02",
			TakenAtMs:     1704153600000, // 2024-01-02 00:00:00 UTC
			Sex:           domain.SexMale,
			AgeYears:      41,
			Activity:      domain.ActivityLight,
			Objective:     domain.ObjectiveLoss,
			WeightKG:      88.0,
			HeightCM:      178.0,

			SkinfoldTriceps:     ptr(12.5),
			SkinfoldBiceps:      ptr(8.0),
			SkinfoldSubscapular: ptr(17.0),
			SkinfoldSuprailiac:  ptr(19.5),

			GirthWaist: ptr(94.0),
			GirthHip:   ptr(102.5),
		},
		{
			MeasurementID: "meas-103",
			SubjectID:     "subj-03",
			TakenAtMs:     1704240000000, // 2024-01-03 00:00:00 UTC
			Sex:           domain.SexMale,
			AgeYears:      23,
			Activity:      domain.ActivityActive,
			Objective:     domain.ObjectiveGain,
			WeightKG:      70.2,
			HeightCM:      182.5,

			SkinfoldTriceps:     ptr(8.0),
			SkinfoldBiceps:      ptr(4.5),
			SkinfoldSubscapular: ptr(9.0),
			SkinfoldSuprailiac:  ptr(8.5),
		},
		{
			MeasurementID: "meas-104",
			SubjectID:     "subj-04",
			TakenAtMs:     1704326400000, // 2024-01-04 00:00:00 UTC
			Sex:           domain.SexMale,
			AgeYears:      35,
			Activity:      domain.ActivityModerate,
			Objective:     domain.ObjectiveMaintain,
			WeightKG:      82.3,
			HeightCM:      175.5,

			SkinfoldTriceps:     ptr(11.0),
			SkinfoldBiceps:      ptr(6.5),
			SkinfoldSubscapular: ptr(14.0),
			SkinfoldSuprailiac:  ptr(13.5),
		},
	}

	for _, m := range measurements {
		if err := store.Insert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func loadFemaleCohort(ctx context.Context, store storage.MeasurementStore) error {
	measurements := []*domain.MeasurementInput{
		// Complete female capture; exercises fractionation and somatotype.
		{
			MeasurementID: "meas-201",
			SubjectID:     "subj-05",
			TakenAtMs:     1704412800000, // 2024-01-05 00:00:00 UTC
			Sex:           domain.SexFemale,
			AgeYears:      30,
			Activity:      domain.ActivityModerate,
			Objective:     domain.ObjectiveMaintain,
			WeightKG:      62.0,
			HeightCM:      167.0,

			SkinfoldTriceps:     ptr(18.5),
			SkinfoldBiceps:      ptr(11.0),
			SkinfoldSubscapular: ptr(16.0),
			SkinfoldSuprailiac:  ptr(15.0),
			SkinfoldSupraspinal: ptr(13.0),
			SkinfoldAbdominal:   ptr(19.5),
			SkinfoldThigh:       ptr(24.0),
			SkinfoldCalf:        ptr(14.5),

			GirthWaist:         ptr(70.0),
			GirthHip:           ptr(96.0),
			GirthArmRelaxed:    ptr(27.0),
			GirthArmFlexed:     ptr(28.5),
			GirthForearm:       ptr(23.5),
			GirthThorax:        ptr(88.0),
			GirthThighSuperior: ptr(57.5),
			GirthThighMedial:   ptr(54.0),
			GirthCalf:          ptr(35.5),

			DiameterBiacromial:            ptr(36.5),
			DiameterBiiliac:               ptr(27.5),
			DiameterHumeral:               ptr(6.1),
			DiameterFemoral:               ptr(8.9),
			DiameterThoraxTransverse:      ptr(25.5),
			DiameterThoraxAnteroposterior: ptr(17.0),
		},
		{
			MeasurementID: "meas-202",
			SubjectID:     "subj-06",
			TakenAtMs:     1704499200000, // 2024-01-06 00:00:00 UTC
			Sex:           domain.SexFemale,
			AgeYears:      26,
			Activity:      domain.ActivityActive,
			Objective:     domain.ObjectiveMaintain,
			WeightKG:      58.4,
			HeightCM:      164.0,

			SkinfoldTriceps:     ptr(16.0),
			SkinfoldBiceps:      ptr(9.5),
			SkinfoldSubscapular: ptr(13.0),
			SkinfoldSuprailiac:  ptr(12.5),
		},
		{
			MeasurementID: "meas-203",
			SubjectID:     "subj-07",
			TakenAtMs:     1704585600000, // 2024-01-07 00:00:00 UTC
			Sex:           domain.SexFemale,
			AgeYears:      44,
			Activity:      domain.ActivitySedentary,
			Objective:     domain.ObjectiveLoss,
			WeightKG:      71.8,
			HeightCM:      169.5,

			SkinfoldTriceps:     ptr(24.0),
			SkinfoldBiceps:      ptr(14.5),
			SkinfoldSubscapular: ptr(21.0),
			SkinfoldSuprailiac:  ptr(22.5),

			GirthWaist: ptr(82.0),
			GirthHip:   ptr(104.0),
		},
		// Follow-up capture of subj-07 one week into the program.
		{
			MeasurementID: "meas-204",
			SubjectID:     "subj-07",
			TakenAtMs:     1705190400000, // 2024-01-14 00:00:00 UTC
			Sex:           domain.SexFemale,
			AgeYears:      44,
			Activity:      domain.ActivitySedentary,
			Objective:     domain.ObjectiveLoss,
			WeightKG:      70.9,
			HeightCM:      169.5,

			SkinfoldTriceps:     ptr(23.0),
			SkinfoldBiceps:      ptr(14.0),
			SkinfoldSubscapular: ptr(20.5),
			SkinfoldSuprailiac:  ptr(21.5),

			GirthWaist: ptr(81.0),
			GirthHip:   ptr(103.5),
		},
		{
			MeasurementID: "meas-205",
			SubjectID:     "subj-08",
			TakenAtMs:     1704672000000, // 2024-01-08 00:00:00 UTC
			Sex:           domain.SexFemale,
			AgeYears:      21,
			Activity:      domain.ActivityVeryActive,
			Objective:     domain.ObjectiveGain,
			WeightKG:      52.6,
			HeightCM:      160.0,

			SkinfoldTriceps:     ptr(14.0),
			SkinfoldBiceps:      ptr(8.0),
			SkinfoldSubscapular: ptr(11.5),
			SkinfoldSuprailiac:  ptr(10.5),
		},
	}

	for _, m := range measurements {
		if err := store.Insert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func loadEdgeCases(ctx context.Context, store storage.MeasurementStore) error {
	measurements := []*domain.MeasurementInput{
		// Intake without calipers; every site-derived field stays null.
		{
			MeasurementID: "meas-301",
			SubjectID:     "subj-09",
			TakenAtMs:     1704758400000, // 2024-01-09 00:00:00 UTC
			Sex:           domain.SexMale,
			AgeYears:      52,
			Activity:      domain.ActivitySedentary,
			Objective:     domain.ObjectiveLoss,
			WeightKG:      96.4,
			HeightCM:      171.0,
		},
		// Triceps above the suspicious-fold cutoff.
		{
			MeasurementID: "meas-302",
			SubjectID:     "subj-10",
			TakenAtMs:     1704844800000, // 2024-01-10 00:00:00 UTC
			Sex:           domain.SexFemale,
			AgeYears:      33,
			Activity:      domain.ActivityLight,
			Objective:     domain.ObjectiveMaintain,
			WeightKG:      75.0,
			HeightCM:      165.0,

			SkinfoldTriceps:     ptr(62.0),
			SkinfoldBiceps:      ptr(20.0),
			SkinfoldSubscapular: ptr(31.0),
			SkinfoldSuprailiac:  ptr(28.5),
		},
		// Age above the Durnin-Womersley table; density still computed, flagged.
		{
			MeasurementID: "meas-303",
			SubjectID:     "subj-11",
			TakenAtMs:     1704931200000, // 2024-01-11 00:00:00 UTC
			Sex:           domain.SexMale,
			AgeYears:      75,
			Activity:      domain.ActivityLight,
			Objective:     domain.ObjectiveMaintain,
			WeightKG:      74.2,
			HeightCM:      172.0,

			SkinfoldTriceps:     ptr(10.0),
			SkinfoldBiceps:      ptr(6.0),
			SkinfoldSubscapular: ptr(12.5),
			SkinfoldSuprailiac:  ptr(11.0),
		},
	}

	for _, m := range measurements {
		if err := store.Insert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func ptr(v float64) *float64 {
	return &v
}

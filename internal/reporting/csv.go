package reporting

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bodycomp-lab/internal/domain"
)

// RenderResultsCSV renders calculation results as CSV string.
// Rows are sorted by (subject_id, measurement_id); absent values render as
// empty cells.
func RenderResultsCSV(results []*domain.CalculationResult) string {
	sorted := make([]*domain.CalculationResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SubjectID != sorted[j].SubjectID {
			return sorted[i].SubjectID < sorted[j].SubjectID
		}
		return sorted[i].MeasurementID < sorted[j].MeasurementID
	})

	var sb strings.Builder

	// Header
	sb.WriteString("measurement_id,subject_id,computed_at_ms,engine_version,input_fingerprint,")
	sb.WriteString("sum4_skinfolds,sum6_skinfolds,sum3_skinfolds,sum8_skinfolds,")
	sb.WriteString("body_density,body_fat_pct,fat_mass_kg,lean_mass_kg,")
	sb.WriteString("muscle_mass_kg,adipose_mass_kg,bone_mass_kg,residual_mass_kg,skin_mass_kg,")
	sb.WriteString("muscle_mass_pct,adipose_mass_pct,bone_mass_pct,residual_mass_pct,skin_mass_pct,")
	sb.WriteString("component_sum_kg,component_sum_deviation_pct,")
	sb.WriteString("endomorphy,mesomorphy,ectomorphy,")
	sb.WriteString("bmr_kcal,maintenance_kcal,target_kcal,protein_g,fat_g,carbs_g,")
	sb.WriteString("warning_count\n")

	// Rows
	for _, r := range sorted {
		fields := []string{
			r.MeasurementID,
			r.SubjectID,
			strconv.FormatInt(r.ComputedAtMs, 10),
			r.EngineVersion,
			r.InputFingerprint,
		}
		for _, p := range []*float64{
			r.Sum4Skinfolds, r.Sum6Skinfolds, r.Sum3Skinfolds, r.Sum8Skinfolds,
			r.BodyDensity, r.BodyFatPct, r.FatMassKG, r.LeanMassKG,
			r.MuscleMassKG, r.AdiposeMassKG, r.BoneMassKG, r.ResidualMassKG, r.SkinMassKG,
			r.MuscleMassPct, r.AdiposeMassPct, r.BoneMassPct, r.ResidualMassPct, r.SkinMassPct,
			r.ComponentSumKG, r.ComponentSumDeviationPct,
			r.Endomorphy, r.Mesomorphy, r.Ectomorphy,
			r.BMRKcal, r.MaintenanceKcal, r.TargetKcal, r.ProteinG, r.FatG, r.CarbsG,
		} {
			fields = append(fields, csvFloat(p))
		}
		fields = append(fields, strconv.Itoa(len(r.Warnings)))

		sb.WriteString(strings.Join(fields, ","))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// RenderAggregatesCSV renders cohort aggregate snapshots as CSV string.
// Rows are sorted by (sex, objective, generated_at_ms).
func RenderAggregatesCSV(aggs []*domain.CohortAggregate) string {
	sorted := make([]*domain.CohortAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Sex != sorted[j].Sex {
			return sorted[i].Sex < sorted[j].Sex
		}
		if sorted[i].Objective != sorted[j].Objective {
			return sorted[i].Objective < sorted[j].Objective
		}
		return sorted[i].GeneratedAtMs < sorted[j].GeneratedAtMs
	})

	var sb strings.Builder

	// Header
	sb.WriteString("sex,objective,generated_at_ms,")
	sb.WriteString("total_measurements,total_subjects,body_fat_computable,fractionation_complete,somatotype_complete,with_warnings,")
	sb.WriteString("body_fat_mean,body_fat_median,body_fat_p10,body_fat_p25,body_fat_p75,body_fat_p90,body_fat_min,body_fat_max,body_fat_stddev,")
	sb.WriteString("weight_mean,lean_mass_mean,muscle_mass_mean,")
	sb.WriteString("endomorphy_mean,mesomorphy_mean,ectomorphy_mean,")
	sb.WriteString("age_out_of_range_count,bodyfat_out_of_range_count,component_sum_mismatch_count,skinfold_suspicious_count\n")

	// Rows
	for _, a := range sorted {
		fields := []string{
			string(a.Sex),
			string(a.Objective),
			strconv.FormatInt(a.GeneratedAtMs, 10),
			strconv.Itoa(a.TotalMeasurements),
			strconv.Itoa(a.TotalSubjects),
			strconv.Itoa(a.BodyFatComputable),
			strconv.Itoa(a.FractionationComplete),
			strconv.Itoa(a.SomatotypeComplete),
			strconv.Itoa(a.WithWarnings),
			fmt.Sprintf("%.6f", a.BodyFatMean),
			fmt.Sprintf("%.6f", a.BodyFatMedian),
			fmt.Sprintf("%.6f", a.BodyFatP10),
			fmt.Sprintf("%.6f", a.BodyFatP25),
			fmt.Sprintf("%.6f", a.BodyFatP75),
			fmt.Sprintf("%.6f", a.BodyFatP90),
			fmt.Sprintf("%.6f", a.BodyFatMin),
			fmt.Sprintf("%.6f", a.BodyFatMax),
			fmt.Sprintf("%.6f", a.BodyFatStddev),
			fmt.Sprintf("%.6f", a.WeightMean),
			csvFloat(a.LeanMassMean),
			csvFloat(a.MuscleMassMean),
			csvFloat(a.EndomorphyMean),
			csvFloat(a.MesomorphyMean),
			csvFloat(a.EctomorphyMean),
			strconv.Itoa(a.AgeOutOfRangeCount),
			strconv.Itoa(a.BodyFatOutOfRangeCount),
			strconv.Itoa(a.ComponentSumMismatchCount),
			strconv.Itoa(a.SkinfoldSuspiciousCount),
		}

		sb.WriteString(strings.Join(fields, ","))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// csvFloat formats an optional value for CSV, empty cell when absent.
func csvFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *p)
}

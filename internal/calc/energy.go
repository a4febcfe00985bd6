package calc

import (
	"bodycomp-lab/internal/domain"
)

// energyTargets holds the daily energy and macro plan.
type energyTargets struct {
	BMRKcal         *float64
	MaintenanceKcal *float64
	TargetKcal      *float64
	ProteinG        *float64
	FatG            *float64
	CarbsG          *float64
}

// computeEnergyTargets derives calories and macros. BMR uses Mifflin-St Jeor
// on weight, height, age and sex; maintenance applies the activity factor;
// the target applies the objective offset. Protein is dosed per kg of lean
// mass, so protein and carbs are nil when lean mass is not computable; fat
// depends only on the target and stays available.
func computeEnergyTargets(m *domain.MeasurementInput, leanMass *float64) energyTargets {
	var e energyTargets

	bmr := 10.0*m.WeightKG + 6.25*m.HeightCM - 5.0*m.AgeYears
	switch m.Sex {
	case domain.SexMale:
		bmr += 5.0
	case domain.SexFemale:
		bmr -= 161.0
	default:
		return e
	}
	e.BMRKcal = &bmr

	activity := m.Activity
	if activity == "" {
		activity = domain.ActivitySedentary
	}
	factor, ok := activityFactors[activity]
	if !ok {
		return e
	}
	maintenance := bmr * factor
	e.MaintenanceKcal = &maintenance

	objective := m.Objective
	if objective == "" {
		objective = domain.ObjectiveMaintain
	}
	offset, ok := objectiveOffsets[objective]
	if !ok {
		return e
	}
	target := maintenance * (1.0 + offset)
	e.TargetKcal = &target

	fatG := target * fatCalorieShare / kcalPerGFat
	e.FatG = &fatG

	if leanMass != nil {
		proteinG := *leanMass * proteinPerKgLean
		carbsG := (target - proteinG*kcalPerGProtein - fatG*kcalPerGFat) / kcalPerGCarb
		e.ProteinG = &proteinG
		e.CarbsG = &carbsG
	}
	return e
}

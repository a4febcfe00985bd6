package domain

// Sex represents the biological sex used for coefficient selection.
type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

// String returns the string representation of Sex.
func (s Sex) String() string {
	return string(s)
}

// IsValid checks if the sex is a valid value.
func (s Sex) IsValid() bool {
	return s == SexMale || s == SexFemale
}

// Objective represents the nutrition objective for energy targets.
type Objective string

const (
	ObjectiveLoss     Objective = "LOSS"
	ObjectiveGain     Objective = "GAIN"
	ObjectiveMaintain Objective = "MAINTAIN"
)

// String returns the string representation of Objective.
func (o Objective) String() string {
	return string(o)
}

// IsValid checks if the objective is a valid value.
func (o Objective) IsValid() bool {
	return o == ObjectiveLoss || o == ObjectiveGain || o == ObjectiveMaintain
}

// ActivityLevel represents habitual physical activity for maintenance calories.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "SEDENTARY"
	ActivityLight      ActivityLevel = "LIGHT"
	ActivityModerate   ActivityLevel = "MODERATE"
	ActivityActive     ActivityLevel = "ACTIVE"
	ActivityVeryActive ActivityLevel = "VERY_ACTIVE"
)

// String returns the string representation of ActivityLevel.
func (a ActivityLevel) String() string {
	return string(a)
}

// IsValid checks if the activity level is a valid value.
func (a ActivityLevel) IsValid() bool {
	switch a {
	case ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive:
		return true
	}
	return false
}

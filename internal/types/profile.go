package types

import "time"

// Gender affects tone templates only, never routing.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
	GenderNotSet Gender = "not_set"
)

// ParseGender normalizes a gender string, defaulting to not_set.
func ParseGender(value string) Gender {
	switch Gender(value) {
	case GenderMale, GenderFemale, GenderOther:
		return Gender(value)
	default:
		return GenderNotSet
	}
}

// UserProfile holds the personality dials and learned preferences for a user.
// Exactly one profile exists per user id.
type UserProfile struct {
	UserID             string
	Gender             Gender
	EmpathyLevel       int
	HumorLevel         int
	FormalityLevel     int
	VerbosityLevel     int
	ProactivenessLevel int
	Preferences        map[string]string
	TotalMessages      int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultProfile returns the profile created on first contact.
func DefaultProfile(userID string) UserProfile {
	return UserProfile{
		UserID:             userID,
		Gender:             GenderNotSet,
		EmpathyLevel:       75,
		HumorLevel:         50,
		FormalityLevel:     40,
		VerbosityLevel:     60,
		ProactivenessLevel: 50,
		Preferences:        map[string]string{},
	}
}

// ClampLevel bounds a personality dial to 0-100.
func ClampLevel(level int) int {
	switch {
	case level < 0:
		return 0
	case level > 100:
		return 100
	default:
		return level
	}
}

package models

import "time"

// Gender is the closed set of genders a user can register with.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// PadelExperience is the self-declared skill level of a player.
type PadelExperience string

const (
	ExperienceBeginner     PadelExperience = "beginner"
	ExperienceIntermediate PadelExperience = "intermediate"
	ExperiencePro          PadelExperience = "pro"
)

// Valid reports whether e is one of the known experience levels.
func (e PadelExperience) Valid() bool {
	switch e {
	case ExperienceBeginner, ExperienceIntermediate, ExperiencePro:
		return true
	default:
		return false
	}
}

// User represents a registered player.
type User struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name            string          `json:"name" gorm:"type:varchar(200);not null"`
	Email           string          `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password        string          `json:"-" gorm:"type:varchar(255);not null"` // bcrypt digest, never serialized
	BirthDate       time.Time       `json:"birthDate"`
	Gender          Gender          `json:"gender" gorm:"type:varchar(16)"`
	PadelExperience PadelExperience `json:"padelExperience" gorm:"type:varchar(16)"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

package export

import (
	"time"

	"padelcentar/internal/models"
)

// renderableDate rejects unset dates and years a four-digit field cannot
// hold; such dates export as an empty field instead of failing the export.
func renderableDate(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	y := t.UTC().Year()
	return y >= 1 && y <= 9999
}

// Croatian labels used by the CSV export.

func genderLabelHR(g models.Gender) string {
	switch g {
	case models.GenderMale:
		return "Muško"
	case models.GenderFemale:
		return "Žensko"
	case models.GenderOther:
		return "Ostalo"
	default:
		return ""
	}
}

func experienceLabelHR(e models.PadelExperience) string {
	switch e {
	case models.ExperienceBeginner:
		return "Početnik"
	case models.ExperienceIntermediate:
		return "Srednji"
	case models.ExperiencePro:
		return "Napredni"
	default:
		return ""
	}
}

// formatDateHR renders a calendar date as DD.MM.YYYY. (hr-HR).
func formatDateHR(t time.Time) string {
	if !renderableDate(t) {
		return ""
	}
	return t.UTC().Format("02.01.2006.")
}

// English labels used by the HTML export.

func genderLabelEN(g models.Gender) string {
	switch g {
	case models.GenderMale:
		return "Male"
	case models.GenderFemale:
		return "Female"
	case models.GenderOther:
		return "Other"
	default:
		return ""
	}
}

func experienceLabelEN(e models.PadelExperience) string {
	switch e {
	case models.ExperienceBeginner:
		return "Beginner"
	case models.ExperienceIntermediate:
		return "Intermediate"
	case models.ExperiencePro:
		return "Professional"
	default:
		return ""
	}
}

// formatDateEN renders a calendar date as M/D/YYYY (en-US).
func formatDateEN(t time.Time) string {
	if !renderableDate(t) {
		return ""
	}
	return t.UTC().Format("1/2/2006")
}

// formatTimestampEN renders an instant as M/D/YYYY, h:mm:ss AM (en-US).
func formatTimestampEN(t time.Time) string {
	return t.Format("1/2/2006, 3:04:05 PM")
}

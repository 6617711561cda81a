package service

import "github.com/MrTune/Sem-Planner/internal/models"

const (
	urgentWithinDays = 3
	soonWithinDays   = 7
)

// ClassifyUrgency bands a component by its date, grading state and today.
// Past dates are overdue until graded; undated components are unscheduled.
func ClassifyUrgency(date models.Date, obtained *float64, today models.Date) models.Band {
	if date.IsZero() {
		return models.BandUnscheduled
	}
	if date.Before(today) {
		if obtained == nil {
			return models.BandOverdue
		}
		return models.BandFinished
	}
	if date.Equal(today) {
		return models.BandToday
	}

	switch days := models.DaysBetween(today, date); {
	case days <= urgentWithinDays:
		return models.BandUrgent
	case days <= soonWithinDays:
		return models.BandSoon
	default:
		return models.BandLater
	}
}

package service

import (
	"math"

	"github.com/MrTune/Sem-Planner/internal/models"
)

// ComputeStats derives the marks summary of one course as of today. It never
// touches storage and TotalMarks is recomputed from the components.
func ComputeStats(course models.Course, today models.Date) models.CourseStats {
	var stats models.CourseStats
	for _, comp := range course.Components {
		stats.TotalMarks += comp.Max
		if comp.Obtained != nil {
			stats.Obtained += *comp.Obtained
		}
		if !comp.Finished(today) {
			continue
		}
		stats.HasFinished = true
		stats.CurrentMax += comp.Max
		if comp.Obtained != nil {
			stats.CurrentObtained += *comp.Obtained
		}
	}

	stats.Percentage, _ = percentOf(stats.Obtained, stats.TotalMarks)
	if current, ok := percentOf(stats.CurrentObtained, stats.CurrentMax); ok {
		stats.CurrentPercentage = &current
	}
	return stats
}

// ComputeOverview aggregates every course for the home view.
func ComputeOverview(collection models.Collection, today models.Date) models.Overview {
	overview := models.Overview{
		Today:   today,
		Courses: make([]models.CourseSummary, 0, len(collection.Courses)),
	}
	for _, course := range collection.Courses {
		stats := ComputeStats(course, today)
		overview.TotalMarks += stats.TotalMarks
		overview.Obtained += stats.Obtained
		overview.Courses = append(overview.Courses, models.CourseSummary{
			Course:   course,
			Stats:    stats,
			Progress: clampPercent(stats.Percentage),
		})

		for _, comp := range course.Components {
			if !comp.Graded() {
				overview.UngradedCount++
			}
			switch ClassifyUrgency(comp.Date, comp.Obtained, today) {
			case models.BandOverdue:
				overview.OverdueCount++
			case models.BandToday, models.BandUrgent, models.BandSoon, models.BandLater:
				overview.UpcomingCount++
			}
		}
	}
	overview.Percentage, _ = percentOf(overview.Obtained, overview.TotalMarks)
	return overview
}

// percentOf returns part/whole*100 rounded to one decimal. ok is false when the
// ratio is undefined; the returned value is then 0.
func percentOf(part, whole float64) (float64, bool) {
	if whole == 0 || math.IsNaN(whole) || math.IsInf(whole, 0) {
		return 0, false
	}
	value := part / whole * 100
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return math.Round(value*10) / 10, true
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

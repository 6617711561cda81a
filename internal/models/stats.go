package models

import "strconv"

// NotApplicable is rendered in place of a percentage that cannot be computed.
const NotApplicable = "N/A"

// CourseStats are the derived figures for one course at one evaluation instant.
type CourseStats struct {
	TotalMarks        float64
	Obtained          float64
	Percentage        float64
	CurrentObtained   float64
	CurrentMax        float64
	CurrentPercentage *float64
	HasFinished       bool
}

// PercentageLabel renders the overall percentage to one decimal place.
func (s CourseStats) PercentageLabel() string {
	return FormatPercent(s.Percentage)
}

// CurrentPercentageLabel renders the current standing or N/A.
func (s CourseStats) CurrentPercentageLabel() string {
	if s.CurrentPercentage == nil {
		return NotApplicable
	}
	return FormatPercent(*s.CurrentPercentage)
}

// FormatPercent renders a percentage with exactly one decimal.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// CourseSummary pairs a course with its stats for the overview.
type CourseSummary struct {
	Course   Course
	Stats    CourseStats
	Progress float64
}

// Overview aggregates every course.
type Overview struct {
	Today         Date
	Courses       []CourseSummary
	TotalMarks    float64
	Obtained      float64
	Percentage    float64
	OverdueCount  int
	UpcomingCount int
	UngradedCount int
}

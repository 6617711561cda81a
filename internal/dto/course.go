package dto

import "encoding/json"

// ComponentView is a component with its urgency as of today.
type ComponentView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Date     string   `json:"date"`
	Max      float64  `json:"max"`
	Obtained *float64 `json:"obtained"`
	Group    string   `json:"group,omitempty"`
	Band     string   `json:"band"`
	CSSClass string   `json:"cssClass"`
	Finished bool     `json:"finished"`
}

// StatsView mirrors the derived course figures. Labels are pre-rendered to one decimal.
type StatsView struct {
	TotalMarks             float64  `json:"totalMarks"`
	Obtained               float64  `json:"obtained"`
	Percentage             float64  `json:"percentage"`
	PercentageLabel        string   `json:"percentageLabel"`
	CurrentObtained        float64  `json:"currentObtained"`
	CurrentMax             float64  `json:"currentMax"`
	CurrentPercentage      *float64 `json:"currentPercentage"`
	CurrentPercentageLabel string   `json:"currentPercentageLabel"`
	HasFinished            bool     `json:"hasFinished"`
}

// CourseView is the course detail payload.
type CourseView struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	TotalMarks float64         `json:"totalMarks"`
	Components []ComponentView `json:"components"`
	Stats      StatsView       `json:"stats"`
}

// CourseCard is one course on the overview page.
type CourseCard struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	TotalMarks      float64 `json:"totalMarks"`
	Obtained        float64 `json:"obtained"`
	Percentage      float64 `json:"percentage"`
	PercentageLabel string  `json:"percentageLabel"`
	Progress        float64 `json:"progress"`
	ComponentCount  int     `json:"componentCount"`
}

// OverviewView aggregates every course card.
type OverviewView struct {
	Today           string       `json:"today"`
	Courses         []CourseCard `json:"courses"`
	TotalMarks      float64      `json:"totalMarks"`
	Obtained        float64      `json:"obtained"`
	Percentage      float64      `json:"percentage"`
	PercentageLabel string       `json:"percentageLabel"`
	OverdueCount    int          `json:"overdueCount"`
	UpcomingCount   int          `json:"upcomingCount"`
	UngradedCount   int          `json:"ungradedCount"`
}

// UpdateFieldRequest carries a raw field value: a string, a number or null.
type UpdateFieldRequest struct {
	Value json.RawMessage `json:"value"`
}

package models

// Band is the urgency label attached to a component.
type Band string

const (
	BandOverdue     Band = "overdue"
	BandFinished    Band = "finished"
	BandToday       Band = "today"
	BandUrgent      Band = "urgent"
	BandSoon        Band = "soon"
	BandLater       Band = "later"
	BandUnscheduled Band = "unscheduled"
)

// IsUrgent is true for the today band and the within-three-days band.
func (b Band) IsUrgent() bool {
	return b == BandToday || b == BandUrgent
}

// CSSClass maps a band to the class the planner front-end styles.
func (b Band) CSSClass() string {
	if b == BandToday {
		return string(BandUrgent)
	}
	return string(b)
}

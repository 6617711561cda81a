package models

import "time"

// UpcomingItem is one entry of the flattened upcoming/overdue list.
type UpcomingItem struct {
	CourseID   int
	CourseName string
	Component  Component
	Band       Band
	DaysLeft   int
}

// CalendarEntry is one component placed on a calendar day.
type CalendarEntry struct {
	CourseID   int
	CourseName string
	Component  Component
	Band       Band
}

// CalendarCell is one slot of the month grid. Placeholder cells pad the first week.
type CalendarCell struct {
	Placeholder bool
	Day         int
	Date        Date
	Entries     []CalendarEntry
}

// MonthRef identifies a calendar month.
type MonthRef struct {
	Year  int
	Month time.Month
}

// CalendarMonth is the projected month grid.
type CalendarMonth struct {
	Year  int
	Month time.Month
	Cells []CalendarCell
	Prev  MonthRef
	Next  MonthRef
}

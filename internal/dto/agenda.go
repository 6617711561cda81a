package dto

// UpcomingView is one row of the upcoming list.
type UpcomingView struct {
	CourseID      int      `json:"courseId"`
	CourseName    string   `json:"courseName"`
	ComponentID   string   `json:"componentId"`
	ComponentName string   `json:"componentName"`
	Date          string   `json:"date"`
	Obtained      *float64 `json:"obtained"`
	Band          string   `json:"band"`
	CSSClass      string   `json:"cssClass"`
	DaysLeft      int      `json:"daysLeft"`
}

// CalendarEntryView links a calendar day back to its course.
type CalendarEntryView struct {
	CourseID      int    `json:"courseId"`
	CourseName    string `json:"courseName"`
	ComponentID   string `json:"componentId"`
	ComponentName string `json:"componentName"`
	Band          string `json:"band"`
	CSSClass      string `json:"cssClass"`
}

// CalendarCellView is one grid slot. Placeholders carry no day.
type CalendarCellView struct {
	Placeholder bool                `json:"placeholder"`
	Day         int                 `json:"day,omitempty"`
	Date        string              `json:"date,omitempty"`
	Entries     []CalendarEntryView `json:"entries"`
}

// MonthRefView points at a neighbouring month.
type MonthRefView struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// CalendarView is a Sunday-first month grid.
type CalendarView struct {
	Year      int                `json:"year"`
	Month     int                `json:"month"`
	MonthName string             `json:"monthName"`
	Cells     []CalendarCellView `json:"cells"`
	Prev      MonthRefView       `json:"prev"`
	Next      MonthRefView       `json:"next"`
}

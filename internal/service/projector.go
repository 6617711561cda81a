package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
)

// ProjectUpcoming flattens every dated component that is still ahead or overdue,
// ordered by date. Components sharing a date keep course then component order.
// limit <= 0 returns everything.
func ProjectUpcoming(collection models.Collection, today models.Date, limit int) []models.UpcomingItem {
	items := make([]models.UpcomingItem, 0)
	for _, course := range collection.Courses {
		for _, comp := range course.Components {
			band := ClassifyUrgency(comp.Date, comp.Obtained, today)
			if band == models.BandUnscheduled || band == models.BandFinished {
				continue
			}
			items = append(items, models.UpcomingItem{
				CourseID:   course.ID,
				CourseName: course.Name,
				Component:  comp,
				Band:       band,
				DaysLeft:   models.DaysBetween(today, comp.Date),
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Component.Date.Before(items[j].Component.Date)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// ProjectCalendarMonth lays out one month as a Sunday-first grid. Leading
// placeholders pad up to the weekday of the 1st; each day lists every component
// dated that day across all courses. The grid is rebuilt on every call.
func ProjectCalendarMonth(collection models.Collection, year int, month time.Month, today models.Date) (models.CalendarMonth, error) {
	if month < time.January || month > time.December {
		return models.CalendarMonth{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("month must be between 1 and 12, got %d", int(month)))
	}

	byDate := make(map[string][]models.CalendarEntry)
	for _, course := range collection.Courses {
		for _, comp := range course.Components {
			if comp.Date.IsZero() || comp.Date.Year() != year || comp.Date.Month() != month {
				continue
			}
			key := comp.Date.String()
			byDate[key] = append(byDate[key], models.CalendarEntry{
				CourseID:   course.ID,
				CourseName: course.Name,
				Component:  comp,
				Band:       ClassifyUrgency(comp.Date, comp.Obtained, today),
			})
		}
	}

	leading := int(models.FirstWeekday(year, month))
	days := models.DaysIn(year, month)
	cells := make([]models.CalendarCell, 0, leading+days)
	for i := 0; i < leading; i++ {
		cells = append(cells, models.CalendarCell{Placeholder: true})
	}
	for day := 1; day <= days; day++ {
		date := models.NewDate(year, month, day)
		cells = append(cells, models.CalendarCell{
			Day:     day,
			Date:    date,
			Entries: byDate[date.String()],
		})
	}

	first := models.NewDate(year, month, 1)
	prev := first.AddDays(-1)
	next := first.AddDays(days)
	return models.CalendarMonth{
		Year:  year,
		Month: month,
		Cells: cells,
		Prev:  models.MonthRef{Year: prev.Year(), Month: prev.Month()},
		Next:  models.MonthRef{Year: next.Year(), Month: next.Month()},
	}, nil
}

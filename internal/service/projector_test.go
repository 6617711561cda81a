package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
)

func projectorCollection() models.Collection {
	return models.Collection{Courses: []models.Course{
		{ID: 1, Name: "Maths", Components: []models.Component{
			{ID: "m-late", Name: "Endsem", Max: 100, Date: day(20)},
			{ID: "m-overdue", Name: "Assignment 1", Max: 10, Date: day(-3)},
			{ID: "m-tie", Name: "Quiz", Max: 10, Date: day(5)},
			{ID: "m-undated", Name: "New Evaluative"},
		}},
		{ID: 2, Name: "Physics", Components: []models.Component{
			{ID: "p-graded", Name: "Lab", Max: 20, Obtained: marks(15), Date: day(-2)},
			{ID: "p-tie", Name: "Midsem", Max: 50, Date: day(5)},
			{ID: "p-today", Name: "Viva", Max: 5, Date: testToday},
		}},
	}}
}

func upcomingIDs(items []models.UpcomingItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Component.ID)
	}
	return ids
}

func TestProjectUpcomingCanonicalFilterAndOrder(t *testing.T) {
	items := ProjectUpcoming(projectorCollection(), testToday, 0)

	assert.Equal(t, []string{"m-overdue", "p-today", "m-tie", "p-tie", "m-late"}, upcomingIDs(items))

	overdue := items[0]
	assert.Equal(t, models.BandOverdue, overdue.Band)
	assert.Equal(t, -3, overdue.DaysLeft)
	assert.Equal(t, 1, overdue.CourseID)
	assert.Equal(t, "Maths", overdue.CourseName)

	assert.Equal(t, models.BandToday, items[1].Band)
	assert.Equal(t, 0, items[1].DaysLeft)
	assert.Equal(t, models.BandSoon, items[2].Band)
	assert.Equal(t, models.BandLater, items[4].Band)
}

func TestProjectUpcomingExcludesGradedPast(t *testing.T) {
	col := models.Collection{Courses: []models.Course{{ID: 1, Components: []models.Component{
		{ID: "x", Date: day(-3)},
	}}}}

	items := ProjectUpcoming(col, testToday, 0)
	require.Len(t, items, 1)
	assert.Equal(t, models.BandOverdue, items[0].Band)

	col.Courses[0].Components[0].Obtained = marks(75)
	assert.Empty(t, ProjectUpcoming(col, testToday, 0))
}

func TestProjectUpcomingIsStableForTies(t *testing.T) {
	comps := make([]models.Component, 0, 20)
	want := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		comps = append(comps, models.Component{ID: id, Date: day(4)})
		want = append(want, id)
	}
	col := models.Collection{Courses: []models.Course{{ID: 1, Components: comps}}}

	assert.Equal(t, want, upcomingIDs(ProjectUpcoming(col, testToday, 0)))
}

func TestProjectUpcomingLimit(t *testing.T) {
	items := ProjectUpcoming(projectorCollection(), testToday, 2)
	assert.Equal(t, []string{"m-overdue", "p-today"}, upcomingIDs(items))
}

func TestProjectCalendarMonthGrid(t *testing.T) {
	month, err := ProjectCalendarMonth(projectorCollection(), 2024, time.May, testToday)
	require.NoError(t, err)

	assert.Equal(t, 2024, month.Year)
	assert.Equal(t, time.May, month.Month)
	require.Len(t, month.Cells, 3+31)
	for i := 0; i < 3; i++ {
		assert.True(t, month.Cells[i].Placeholder)
		assert.Empty(t, month.Cells[i].Entries)
	}
	first := month.Cells[3]
	assert.False(t, first.Placeholder)
	assert.Equal(t, 1, first.Day)
	assert.Equal(t, models.NewDate(2024, time.May, 1), first.Date)

	tieCell := month.Cells[3+20-1]
	assert.Equal(t, 20, tieCell.Day)
	require.Len(t, tieCell.Entries, 2)
	assert.Equal(t, "m-tie", tieCell.Entries[0].Component.ID)
	assert.Equal(t, 1, tieCell.Entries[0].CourseID)
	assert.Equal(t, "p-tie", tieCell.Entries[1].Component.ID)
	assert.Equal(t, 2, tieCell.Entries[1].CourseID)
	assert.Equal(t, models.BandSoon, tieCell.Entries[0].Band)

	todayCell := month.Cells[3+15-1]
	require.Len(t, todayCell.Entries, 1)
	assert.Equal(t, models.BandToday, todayCell.Entries[0].Band)

	graded := month.Cells[3+13-1]
	require.Len(t, graded.Entries, 1)
	assert.Equal(t, models.BandFinished, graded.Entries[0].Band)

	total := 0
	for _, cell := range month.Cells {
		total += len(cell.Entries)
	}
	assert.Equal(t, 5, total)

	assert.Equal(t, models.MonthRef{Year: 2024, Month: time.April}, month.Prev)
	assert.Equal(t, models.MonthRef{Year: 2024, Month: time.June}, month.Next)
}

func TestProjectCalendarMonthYearBoundaries(t *testing.T) {
	jan, err := ProjectCalendarMonth(models.Collection{}, 2025, time.January, testToday)
	require.NoError(t, err)
	assert.Equal(t, models.MonthRef{Year: 2024, Month: time.December}, jan.Prev)
	assert.Len(t, jan.Cells, 3+31)

	dec, err := ProjectCalendarMonth(models.Collection{}, 2024, time.December, testToday)
	require.NoError(t, err)
	assert.Equal(t, models.MonthRef{Year: 2025, Month: time.January}, dec.Next)
	assert.Len(t, dec.Cells, 0+31)

	sep, err := ProjectCalendarMonth(models.Collection{}, 2024, time.September, testToday)
	require.NoError(t, err)
	assert.False(t, sep.Cells[0].Placeholder)
	assert.LessOrEqual(t, len(sep.Cells), 42)
}

func TestProjectCalendarMonthRejectsInvalidMonth(t *testing.T) {
	_, err := ProjectCalendarMonth(models.Collection{}, 2024, time.Month(13), testToday)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = ProjectCalendarMonth(models.Collection{}, 2024, time.Month(0), testToday)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestProjectCalendarMonthIsRecomputed(t *testing.T) {
	col := projectorCollection()
	before, err := ProjectCalendarMonth(col, 2024, time.May, testToday)
	require.NoError(t, err)

	col, err = col.RemoveComponent(2, "p-tie")
	require.NoError(t, err)
	after, err := ProjectCalendarMonth(col, 2024, time.May, testToday)
	require.NoError(t, err)

	assert.Len(t, before.Cells[3+20-1].Entries, 2)
	assert.Len(t, after.Cells[3+20-1].Entries, 1)
}

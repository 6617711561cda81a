package handler

import (
	"github.com/MrTune/Sem-Planner/internal/dto"
	"github.com/MrTune/Sem-Planner/internal/models"
	"github.com/MrTune/Sem-Planner/internal/service"
)

func presentStats(stats models.CourseStats) dto.StatsView {
	return dto.StatsView{
		TotalMarks:             stats.TotalMarks,
		Obtained:               stats.Obtained,
		Percentage:             stats.Percentage,
		PercentageLabel:        stats.PercentageLabel(),
		CurrentObtained:        stats.CurrentObtained,
		CurrentMax:             stats.CurrentMax,
		CurrentPercentage:      stats.CurrentPercentage,
		CurrentPercentageLabel: stats.CurrentPercentageLabel(),
		HasFinished:            stats.HasFinished,
	}
}

func presentComponent(comp models.Component, today models.Date) dto.ComponentView {
	band := service.ClassifyUrgency(comp.Date, comp.Obtained, today)
	return dto.ComponentView{
		ID:       comp.ID,
		Name:     comp.Name,
		Date:     comp.Date.String(),
		Max:      comp.Max,
		Obtained: comp.Obtained,
		Group:    string(comp.Group),
		Band:     string(band),
		CSSClass: band.CSSClass(),
		Finished: comp.Finished(today),
	}
}

// presentCourse recomputes stats so the payload always matches the components it carries.
func presentCourse(course models.Course, today models.Date) dto.CourseView {
	components := make([]dto.ComponentView, 0, len(course.Components))
	for _, comp := range course.Components {
		components = append(components, presentComponent(comp, today))
	}
	stats := service.ComputeStats(course, today)
	return dto.CourseView{
		ID:         course.ID,
		Name:       course.Name,
		TotalMarks: stats.TotalMarks,
		Components: components,
		Stats:      presentStats(stats),
	}
}

func presentOverview(overview models.Overview) dto.OverviewView {
	cards := make([]dto.CourseCard, 0, len(overview.Courses))
	for _, summary := range overview.Courses {
		cards = append(cards, dto.CourseCard{
			ID:              summary.Course.ID,
			Name:            summary.Course.Name,
			TotalMarks:      summary.Stats.TotalMarks,
			Obtained:        summary.Stats.Obtained,
			Percentage:      summary.Stats.Percentage,
			PercentageLabel: summary.Stats.PercentageLabel(),
			Progress:        summary.Progress,
			ComponentCount:  len(summary.Course.Components),
		})
	}
	return dto.OverviewView{
		Today:           overview.Today.String(),
		Courses:         cards,
		TotalMarks:      overview.TotalMarks,
		Obtained:        overview.Obtained,
		Percentage:      overview.Percentage,
		PercentageLabel: models.FormatPercent(overview.Percentage),
		OverdueCount:    overview.OverdueCount,
		UpcomingCount:   overview.UpcomingCount,
		UngradedCount:   overview.UngradedCount,
	}
}

func presentUpcoming(items []models.UpcomingItem) []dto.UpcomingView {
	views := make([]dto.UpcomingView, 0, len(items))
	for _, item := range items {
		views = append(views, dto.UpcomingView{
			CourseID:      item.CourseID,
			CourseName:    item.CourseName,
			ComponentID:   item.Component.ID,
			ComponentName: item.Component.Name,
			Date:          item.Component.Date.String(),
			Obtained:      item.Component.Obtained,
			Band:          string(item.Band),
			CSSClass:      item.Band.CSSClass(),
			DaysLeft:      item.DaysLeft,
		})
	}
	return views
}

func presentCalendar(month models.CalendarMonth) dto.CalendarView {
	cells := make([]dto.CalendarCellView, 0, len(month.Cells))
	for _, cell := range month.Cells {
		entries := make([]dto.CalendarEntryView, 0, len(cell.Entries))
		for _, entry := range cell.Entries {
			entries = append(entries, dto.CalendarEntryView{
				CourseID:      entry.CourseID,
				CourseName:    entry.CourseName,
				ComponentID:   entry.Component.ID,
				ComponentName: entry.Component.Name,
				Band:          string(entry.Band),
				CSSClass:      entry.Band.CSSClass(),
			})
		}
		cells = append(cells, dto.CalendarCellView{
			Placeholder: cell.Placeholder,
			Day:         cell.Day,
			Date:        cell.Date.String(),
			Entries:     entries,
		})
	}
	return dto.CalendarView{
		Year:      month.Year,
		Month:     int(month.Month),
		MonthName: month.Month.String(),
		Cells:     cells,
		Prev:      dto.MonthRefView{Year: month.Prev.Year, Month: int(month.Prev.Month)},
		Next:      dto.MonthRefView{Year: month.Next.Year, Month: int(month.Next.Month)},
	}
}

func presentStatus(status service.PlannerStatus) dto.StatusView {
	view := dto.StatusView{
		Origin:      status.Origin,
		StoreDriver: status.StoreDriver,
		StoreKey:    status.StoreKey,
		Loaded:      status.Loaded,
		LoadStatus:  string(status.LastLoad.Status),
		Seeded:      status.LastLoad.Seeded,
		Courses:     status.Courses,
		Today:       status.Today.String(),
	}
	if status.LastLoad.Err != nil {
		view.LoadError = status.LastLoad.Err.Error()
	}
	if !status.LastLoad.LoadedAt.IsZero() {
		loadedAt := status.LastLoad.LoadedAt
		view.LoadedAt = &loadedAt
	}
	if !status.ExternalReload.IsZero() {
		reloaded := status.ExternalReload
		view.ExternalReload = &reloaded
	}
	return view
}

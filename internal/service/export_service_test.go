package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
	"github.com/MrTune/Sem-Planner/pkg/export"
)

type courseSourceStub struct {
	course models.Course
}

func (s courseSourceStub) Course(_ context.Context, id int) (models.Course, models.CourseStats, error) {
	if id != s.course.ID {
		return models.Course{}, models.CourseStats{}, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return s.course, ComputeStats(s.course, testToday), nil
}

func (s courseSourceStub) Today() models.Date { return testToday }

func exportFixture() courseSourceStub {
	return courseSourceStub{course: models.Course{ID: 4, Name: "Course 4: Data Structures", Components: []models.Component{
		{ID: "a", Name: "Midsem", Group: models.GroupMidsem, Date: day(-1), Max: 50, Obtained: marks(40)},
		{ID: "b", Name: "Endsem", Group: models.GroupEndsem, Date: day(1), Max: 50},
	}}}
}

func TestExportCourseCSV(t *testing.T) {
	svc := NewExportService(exportFixture(), export.NewCSVExporter(), export.NewPDFExporter(), nil)

	result, err := svc.ExportCourse(context.Background(), 4, ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "course-4-data-structures.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	body := string(result.Body)
	assert.True(t, strings.HasPrefix(body, "Component,Group,Date,Max,Obtained,Status\n"))
	assert.Contains(t, body, "Midsem,Midsem,2024-05-14,50,40,finished\n")
	assert.Contains(t, body, "Endsem,Endsem,2024-05-16,50,,urgent\n")
	assert.Contains(t, body, "Percentage,40.0%\n")
	assert.Contains(t, body, "Current standing,80.0%\n")
}

func TestExportCoursePDF(t *testing.T) {
	svc := NewExportService(exportFixture(), nil, nil, nil)

	result, err := svc.ExportCourse(context.Background(), 4, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Body, []byte("%PDF")))
}

func TestExportCourseErrors(t *testing.T) {
	svc := NewExportService(exportFixture(), nil, nil, nil)

	_, err := svc.ExportCourse(context.Background(), 9, ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.ExportCourse(context.Background(), 4, ExportFormat("xlsx"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportCurrentStandingNotApplicable(t *testing.T) {
	course := models.Course{ID: 1, Name: "???", Components: []models.Component{{Name: "Quiz", Date: day(3), Max: 10}}}
	dataset := buildCourseDataset(course, ComputeStats(course, testToday), testToday)

	assert.Equal(t, "course-1", courseSlug(course))
	assert.Equal(t, models.NotApplicable, dataset.Summary[3].Value)
}

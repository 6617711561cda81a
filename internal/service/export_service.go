package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
	"github.com/MrTune/Sem-Planner/pkg/export"
)

// ExportFormat selects a rendered report type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var slugChars = regexp.MustCompile(`[^a-z0-9]+`)

var courseExportHeaders = []string{"Component", "Group", "Date", "Max", "Obtained", "Status"}

type courseSource interface {
	Course(ctx context.Context, id int) (models.Course, models.CourseStats, error)
	Today() models.Date
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered course report.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a course's components and standing as CSV or PDF.
type ExportService struct {
	courses courseSource
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(courses courseSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{courses: courses, csv: csv, pdf: pdf, logger: logger}
}

// ExportCourse renders one course in the requested format.
func (s *ExportService) ExportCourse(ctx context.Context, courseID int, format ExportFormat) (*ExportResult, error) {
	course, stats, err := s.courses.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	dataset := buildCourseDataset(course, stats, s.courses.Today())

	var (
		body        []byte
		contentType string
	)
	switch format {
	case ExportFormatCSV, "":
		format = ExportFormatCSV
		body, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		body, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("course export failed", zap.Int("course_id", courseID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("%s.%s", courseSlug(course), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func buildCourseDataset(course models.Course, stats models.CourseStats, today models.Date) export.Dataset {
	rows := make([]map[string]string, 0, len(course.Components))
	for _, comp := range course.Components {
		obtained := ""
		if comp.Obtained != nil {
			obtained = formatMarks(*comp.Obtained)
		}
		rows = append(rows, map[string]string{
			"Component": comp.Name,
			"Group":     string(comp.Group),
			"Date":      comp.Date.String(),
			"Max":       formatMarks(comp.Max),
			"Obtained":  obtained,
			"Status":    string(ClassifyUrgency(comp.Date, comp.Obtained, today)),
		})
	}

	current := models.NotApplicable
	if stats.HasFinished {
		current = stats.CurrentPercentageLabel() + suffixPercent(stats.CurrentPercentage != nil)
	}
	return export.Dataset{
		Title:   course.Name,
		Headers: courseExportHeaders,
		Rows:    rows,
		Summary: []export.SummaryLine{
			{Label: "Total marks", Value: formatMarks(stats.TotalMarks)},
			{Label: "Obtained", Value: formatMarks(stats.Obtained)},
			{Label: "Percentage", Value: stats.PercentageLabel() + "%"},
			{Label: "Current standing", Value: current},
			{Label: "As of", Value: today.String()},
		},
	}
}

func suffixPercent(ok bool) string {
	if ok {
		return "%"
	}
	return ""
}

func formatMarks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func courseSlug(course models.Course) string {
	slug := strings.Trim(slugChars.ReplaceAllString(strings.ToLower(course.Name), "-"), "-")
	if slug == "" {
		return fmt.Sprintf("course-%d", course.ID)
	}
	return slug
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MrTune/Sem-Planner/internal/dto"
	"github.com/MrTune/Sem-Planner/internal/models"
	"github.com/MrTune/Sem-Planner/internal/service"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
	"github.com/MrTune/Sem-Planner/pkg/response"
)

type coursePlanner interface {
	Today() models.Date
	Overview(ctx context.Context) (models.Overview, error)
	Course(ctx context.Context, id int) (models.Course, models.CourseStats, error)
	AddCourse(ctx context.Context, req service.CreateCourseRequest) (models.Course, error)
	SetCourseName(ctx context.Context, id int, req service.RenameCourseRequest) (models.Course, error)
	RemoveCourse(ctx context.Context, id int) error
	ClearComponents(ctx context.Context, courseID int) (models.Course, error)
	AddComponent(ctx context.Context, courseID int, req service.CreateComponentRequest) (models.Course, models.Component, error)
	RemoveComponent(ctx context.Context, courseID int, componentID string) (models.Course, error)
	UpdateComponentField(ctx context.Context, courseID int, componentID string, field models.ComponentField, raw string) (models.Course, error)
}

type courseExporter interface {
	ExportCourse(ctx context.Context, courseID int, format service.ExportFormat) (*service.ExportResult, error)
}

// CourseHandler exposes course and component endpoints. Every mutation answers
// with the re-derived course.
type CourseHandler struct {
	planner  coursePlanner
	exporter courseExporter
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(planner coursePlanner, exporter courseExporter) *CourseHandler {
	return &CourseHandler{planner: planner, exporter: exporter}
}

// List godoc
// @Summary Overview of every course
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	overview, err := h.planner.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, presentOverview(overview))
}

// Create godoc
// @Summary Add a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	course, err := h.planner.AddCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, presentCourse(course, h.planner.Today()))
}

// Get godoc
// @Summary Course detail with stats
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := courseID(c)
	if !ok {
		return
	}
	course, _, err := h.planner.Course(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, presentCourse(course, h.planner.Today()))
}

// Rename godoc
// @Summary Rename a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.RenameCourseRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/name [put]
func (h *CourseHandler) Rename(c *gin.Context) {
	id, ok := courseID(c)
	if !ok {
		return
	}
	var req service.RenameCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	course, err := h.planner.SetCourseName(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, presentCourse(course, h.planner.Today()))
}

// Delete godoc
// @Summary Remove a course
// @Tags Courses
// @Param id path int true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := courseID(c)
	if !ok {
		return
	}
	if err := h.planner.RemoveCourse(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear godoc
// @Summary Remove every component of a course
// @Tags Components
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/components [delete]
func (h *CourseHandler) Clear(c *gin.Context) {
	id, ok := courseID(c)
	if !ok {
		return
	}
	course, err := h.planner.ClearComponents(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, presentCourse(course, h.planner.Today()))
}

// AddComponent godoc
// @Summary Add a component to a course
// @Tags Components
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.CreateComponentRequest false "Component payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/components [post]
func (h *CourseHandler) AddComponent(c *gin.Context) {
	id, ok := courseID(c)
	if !ok {
		return
	}
	var req service.CreateComponentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
			return
		}
	}
	course, comp, err := h.planner.AddComponent(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, presentCourse(course, h.planner.Today()), map[string]interface{}{"componentId": comp.ID})
}

// RemoveComponent godoc
// @Summary Remove a component
// @Tags Components
// @Produce json
// @Param id path int true "Course ID"
// @Param componentId path string true "Component ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/components/{componentId} [delete]
func (h *CourseHandler) RemoveComponent(c *gin.Context) {
	id, ok := courseID(c)
	if !ok {
		return
	}
	course, err := h.planner.RemoveComponent(c.Request.Context(), id, c.Param("componentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, presentCourse(course, h.planner.Today()))
}

// UpdateComponentField godoc
// @Summary Edit one component field
// @Description field is one of name, date, max, obtained, group. An empty value clears obtained and zeroes max.
// @Tags Components
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param componentId path string true "Component ID"
// @Param field path string true "Field name"
// @Param payload body dto.UpdateFieldRequest true "Raw value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/components/{componentId}/{field} [put]
func (h *CourseHandler) UpdateComponentField(c *gin.Context) {
	id, ok := courseID(c)
	if !ok {
		return
	}
	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	raw, err := rawFieldValue(req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	field := models.ComponentField(strings.ToLower(c.Param("field")))
	course, err := h.planner.UpdateComponentField(c.Request.Context(), id, c.Param("componentId"), field, raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, presentCourse(course, h.planner.Today()))
}

// Export godoc
// @Summary Download a course report
// @Tags Courses
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Course ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /courses/{id}/export [get]
func (h *CourseHandler) Export(c *gin.Context) {
	id, ok := courseID(c)
	if !ok {
		return
	}
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	result, err := h.exporter.ExportCourse(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Body)
}

// courseID writes the not-found response itself when the id cannot name a course.
func courseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "course not found"))
		return 0, false
	}
	return id, true
}

// rawFieldValue flattens a JSON string, number or null into the text form the
// mutation API coerces.
func rawFieldValue(value json.RawMessage) (string, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || string(value) == "null" {
		return "", nil
	}
	switch value[0] {
	case '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return "", appErrors.Clone(appErrors.ErrValidation, "value must be a string, a number or null")
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(value, &n); err != nil {
			return "", appErrors.Clone(appErrors.ErrValidation, "value must be a string, a number or null")
		}
		return n.String(), nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "value must be a string, a number or null")
	}
}

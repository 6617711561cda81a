package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MrTune/Sem-Planner/internal/middleware"
	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
	"github.com/MrTune/Sem-Planner/pkg/response"
)

type agendaPlanner interface {
	Today() models.Date
	Upcoming(ctx context.Context, limit int) ([]models.UpcomingItem, error)
	CalendarMonth(ctx context.Context, year, month int) (models.CalendarMonth, error)
}

// AgendaHandler serves the upcoming list and the calendar.
type AgendaHandler struct {
	planner agendaPlanner
}

// NewAgendaHandler constructs the handler.
func NewAgendaHandler(planner agendaPlanner) *AgendaHandler {
	return &AgendaHandler{planner: planner}
}

// Upcoming godoc
// @Summary Upcoming and overdue components
// @Tags Agenda
// @Produce json
// @Param limit query int false "Maximum number of rows"
// @Success 200 {object} response.Envelope
// @Router /upcoming [get]
func (h *AgendaHandler) Upcoming(c *gin.Context) {
	limit, err := optionalInt(c, "limit")
	if err != nil || limit < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
		return
	}
	items, err := h.planner.Upcoming(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "today", h.planner.Today().String())
	middleware.SetMeta(c, "count", len(items))
	response.JSON(c, http.StatusOK, presentUpcoming(items), middleware.ExtractMeta(c))
}

// Calendar godoc
// @Summary Month grid of component dates
// @Tags Agenda
// @Produce json
// @Param year query int false "Year, defaults to the current year"
// @Param month query int false "Month 1-12, defaults to the current month"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar [get]
func (h *AgendaHandler) Calendar(c *gin.Context) {
	year, err := optionalInt(c, "year")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
		return
	}
	month, err := optionalInt(c, "month")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be an integer"))
		return
	}
	if c.Query("month") != "" && month == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12"))
		return
	}
	grid, err := h.planner.CalendarMonth(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "today", h.planner.Today().String())
	response.JSON(c, http.StatusOK, presentCalendar(grid), middleware.ExtractMeta(c))
}

func optionalInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

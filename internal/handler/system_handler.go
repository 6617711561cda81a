package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrTune/Sem-Planner/internal/models"
	"github.com/MrTune/Sem-Planner/internal/service"
	"github.com/MrTune/Sem-Planner/pkg/response"
)

type systemPlanner interface {
	Status() service.PlannerStatus
	Reload(ctx context.Context) (models.LoadResult, error)
}

type metricsSnapshotter interface {
	Snapshot() service.MetricsSnapshot
}

// SystemHandler reports load status and forces reloads.
type SystemHandler struct {
	planner systemPlanner
	metrics metricsSnapshotter
}

// NewSystemHandler constructs the handler. metrics may be nil.
func NewSystemHandler(planner systemPlanner, metrics metricsSnapshotter) *SystemHandler {
	return &SystemHandler{planner: planner, metrics: metrics}
}

// Status godoc
// @Summary Persistence status
// @Description Reports whether the last load found state, none, or a corrupted blob.
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *SystemHandler) Status(c *gin.Context) {
	var meta map[string]interface{}
	if h.metrics != nil {
		meta = map[string]interface{}{"metrics": h.metrics.Snapshot()}
	}
	response.JSON(c, http.StatusOK, presentStatus(h.planner.Status()), meta)
}

// Reload godoc
// @Summary Discard in-memory state and reload from the store
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /reload [post]
func (h *SystemHandler) Reload(c *gin.Context) {
	if _, err := h.planner.Reload(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, presentStatus(h.planner.Status()))
}

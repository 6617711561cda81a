package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Courses *CourseHandler
	Agenda  *AgendaHandler
	System  *SystemHandler
	Metrics *MetricsHandler
}

// Register mounts the planner routes under prefix and the probes at the root.
func Register(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	courses := api.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.POST("", h.Courses.Create)
	courses.GET("/:id", h.Courses.Get)
	courses.PUT("/:id/name", h.Courses.Rename)
	courses.DELETE("/:id", h.Courses.Delete)
	courses.GET("/:id/export", h.Courses.Export)
	courses.POST("/:id/components", h.Courses.AddComponent)
	courses.DELETE("/:id/components", h.Courses.Clear)
	courses.DELETE("/:id/components/:componentId", h.Courses.RemoveComponent)
	courses.PUT("/:id/components/:componentId/:field", h.Courses.UpdateComponentField)

	api.GET("/upcoming", h.Agenda.Upcoming)
	api.GET("/calendar", h.Agenda.Calendar)
	api.GET("/status", h.System.Status)
	api.POST("/reload", h.System.Reload)
}

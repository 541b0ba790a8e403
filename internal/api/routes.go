package api

import (
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	router.GET("/healthz", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := router.Group("/api")
	api.GET("/dashboard", h.dashboard)
	api.GET("/events", h.events)

	api.GET("/jobs", h.listJobs)
	api.POST("/jobs", h.createJob)
	api.GET("/jobs/:id", h.getJob)
	api.PUT("/jobs/:id", h.replaceJob)
	api.POST("/jobs/:id/finish", h.finishJob)

	api.GET("/machines/:machine/navigate/:direction", h.navigate)

	api.GET("/archive", h.listArchive)
	api.DELETE("/archive", h.clearArchive)

	api.GET("/export/jobs.xlsx", h.exportJobs)
	api.GET("/export/archive.xlsx", h.exportArchive)
}

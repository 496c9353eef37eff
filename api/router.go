package api

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/datewatch/api/handler"
	"github.com/use-agent/datewatch/api/middleware"
	"github.com/use-agent/datewatch/config"
	"github.com/use-agent/datewatch/monitor"
)

// NewRouter creates the status surface.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Status:  Guard (API key if configured, per-caller budget)
//
// Health stays outside auth so liveness probes always work.
func NewRouter(status *monitor.StatusStore, sites int, cfg config.StatusConfig) *gin.Engine {
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(status, sites))

	protected := v1.Group("")
	protected.Use(middleware.NewGuard(cfg).Middleware())
	protected.GET("/status", handler.Status(status))

	return r
}

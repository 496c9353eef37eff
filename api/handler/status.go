package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/datewatch/monitor"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Cycles    int                  `json:"cycles"`
	LastCycle *monitor.CycleReport `json:"last_cycle"`
}

// Status returns a handler for GET /api/v1/status with the most recent
// cycle report. LastCycle is null until the first cycle finishes.
func Status(status *monitor.StatusStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		cycles, last := status.Snapshot()
		c.JSON(http.StatusOK, StatusResponse{Cycles: cycles, LastCycle: last})
	}
}

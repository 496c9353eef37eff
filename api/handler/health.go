package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/datewatch/models"
	"github.com/use-agent/datewatch/monitor"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports "degraded" when every site in the last cycle failed.
func Health(status *monitor.StatusStore, sites int) gin.HandlerFunc {
	return func(c *gin.Context) {
		cycles, last := status.Snapshot()

		state := "healthy"
		if last != nil && len(last.Sites) > 0 && allFailed(last.Sites) {
			state = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  state,
			Uptime:  status.Uptime().Round(time.Second).String(),
			Sites:   sites,
			Cycles:  cycles,
			Version: models.Version,
		})
	}
}

func allFailed(reports []monitor.SiteReport) bool {
	for _, r := range reports {
		if r.Stage != monitor.StageFailed {
			return false
		}
	}
	return true
}

package reaper

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"frameworks/api_reaper/pkg/logging"
)

// RegisterRoutes attaches the ops endpoints to the router.
func (r *Reaper) RegisterRoutes(router *gin.Engine) {
	router.GET("/sessions", r.handleListSessions)
	router.POST("/sessions/:transcode_id/stop", r.handleStopSession)
}

// handleListSessions returns the last cycle's session view.
func (r *Reaper) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, r.Snapshot())
}

// handleStopSession stops a transcode on demand, bypassing readiness
// checks. Dry-run mode does not apply to explicit operator requests.
func (r *Reaper) handleStopSession(c *gin.Context) {
	transcodeID := c.Param("transcode_id")
	if transcodeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transcode_id is required"})
		return
	}

	code, err := r.sessions.StopTranscode(c.Request.Context(), transcodeID)
	if err != nil {
		r.logger.WithField("transcode_id", transcodeID).WithError(err).Error("Manual stop failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to stop session"})
		return
	}

	r.logger.WithFields(logging.Fields{
		"transcode_id": transcodeID,
		"status_code":  code,
	}).Info("Stopped session on request")
	r.metrics.Stops.WithLabelValues("manual", "live", "ok").Inc()

	c.JSON(http.StatusOK, gin.H{
		"transcode_id": transcodeID,
		"status_code":  code,
	})
}

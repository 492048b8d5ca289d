package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
)

// handleVideoMetrics serves GET /api/metrics/:platform/:videoId for
// verification nodes. The response body is the agreement payload replicas
// converge on, so it contains nothing request-specific.
func (s *Server) handleVideoMetrics(c *gin.Context) {
	platform, err := platformdomain.ParsePlatform(c.Param("platform"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	videoID := c.Param("videoId")
	metrics, err := s.engagementSvc.VideoMetrics(c.Request.Context(), platform, videoID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}

package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	submissionservice "github.com/brookejlacey/flowback/internal/submission/service"
)

type createSubmissionRequest struct {
	CampaignID string `json:"campaign_id"`
	CreatorID  string `json:"creator_id"`
	Platform   string `json:"platform"`
	VideoURL   string `json:"video_url"`
}

func (s *Server) handleCreateSubmission(c *gin.Context) {
	var req createSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	creatorID, err := snowflake.ParseString(strings.TrimSpace(req.CreatorID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	submission, err := s.submissionSvc.Create(c.Request.Context(), submissionservice.CreateInput{
		CampaignID: req.CampaignID,
		CreatorID:  creatorID,
		Platform:   req.Platform,
		VideoURL:   req.VideoURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

func (s *Server) handleGetSubmission(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	submission, err := s.submissionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

func (s *Server) handleListSubmissions(c *gin.Context) {
	creatorID, err := snowflake.ParseString(strings.TrimSpace(c.Query("creator_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	submissions, err := s.submissionSvc.ListByCreator(c.Request.Context(), creatorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

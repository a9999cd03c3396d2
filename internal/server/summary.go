package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
)

type runRollupRequest struct {
	Date string `json:"date"`
}

func (s *Server) RunRollup(c *gin.Context) {
	var req runRollupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	date, err := parseOptionalTime(req.Date, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summaries, err := s.summarySvc.Run(c.Request.Context(), date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

func (s *Server) GetSummaries(c *gin.Context) {
	startDate, err := parseOptionalTime(c.Query("start_date"), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	endDate, err := parseOptionalTime(c.Query("end_date"), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summaries, err := s.summarySvc.Get(c.Request.Context(), summarydomain.GetSummariesRequest{
		StartDate:    startDate,
		EndDate:      endDate,
		Service:      c.Query("service"),
		VerticalSlug: c.Query("vertical"),
		TerritoryID:  c.Query("territory_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

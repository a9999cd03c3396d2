package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
)

func (s *Server) RecordPerformance(c *gin.Context) {
	var req performancedomain.RecordPerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	event, err := s.performanceSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (s *Server) ListPerformance(c *gin.Context) {
	startDate, err := parseOptionalTime(c.Query("start_date"), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	endDate, err := parseOptionalTime(c.Query("end_date"), true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	events, err := s.performanceSvc.List(c.Request.Context(), performancedomain.ListPerformanceRequest{
		StartDate:    startDate,
		EndDate:      endDate,
		Service:      c.Query("service"),
		Operation:    c.Query("operation"),
		VerticalSlug: c.Query("vertical"),
		TerritoryID:  c.Query("territory_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) ErrorSummary(c *gin.Context) {
	startDate, err := parseOptionalTime(c.Query("start_date"), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	endDate, err := parseOptionalTime(c.Query("end_date"), true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	buckets, err := s.performanceSvc.ErrorSummary(c.Request.Context(), performancedomain.ErrorSummaryRequest{
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"errors": buckets})
}

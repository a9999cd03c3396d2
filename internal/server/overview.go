package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	overviewdomain "github.com/uaesivakumar/upr-os-sub012/internal/overview/domain"
)

func (s *Server) OverviewUsageStats(c *gin.Context) {
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

	resp, err := s.overviewSvc.UsageStats(c.Request.Context(), overviewdomain.UsageStatsRequest{
		StartDate:    startDate,
		EndDate:      endDate,
		GroupBy:      c.Query("group_by"),
		Service:      c.Query("service"),
		VerticalSlug: c.Query("vertical"),
		TerritoryID:  c.Query("territory_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) OverviewCostSummary(c *gin.Context) {
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

	resp, err := s.overviewSvc.CostSummary(c.Request.Context(), overviewdomain.CostSummaryRequest{
		StartDate:    startDate,
		EndDate:      endDate,
		VerticalSlug: c.Query("vertical"),
		TerritoryID:  c.Query("territory_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) OverviewCostTrend(c *gin.Context) {
	days, err := parseOptionalInt(c.Query("days"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	points, err := s.overviewSvc.CostTrend(c.Request.Context(), overviewdomain.CostTrendRequest{
		Days:         days,
		VerticalSlug: c.Query("vertical"),
		TerritoryID:  c.Query("territory_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trend": points})
}

func (s *Server) OverviewPerformanceStats(c *gin.Context) {
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

	resp, err := s.overviewSvc.PerformanceStats(c.Request.Context(), overviewdomain.PerformanceStatsRequest{
		StartDate:   startDate,
		EndDate:     endDate,
		Service:     c.Query("service"),
		TerritoryID: c.Query("territory_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) OverviewRealtime(c *gin.Context) {
	snapshot, err := s.overviewSvc.Realtime(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) OverviewHealth(c *gin.Context) {
	report, err := s.overviewSvc.Health(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
)

func (s *Server) UpdateConversion(c *gin.Context) {
	var req outreachdomain.UpdateConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	state, err := s.outreachSvc.UpdateConversion(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (s *Server) GetFunnel(c *gin.Context) {
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

	funnel, err := s.outreachSvc.GetFunnel(c.Request.Context(), outreachdomain.GetFunnelRequest{
		StartDate:    startDate,
		EndDate:      endDate,
		VerticalSlug: c.Query("vertical"),
		TerritoryID:  c.Query("territory_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, funnel)
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	thresholddomain "github.com/uaesivakumar/upr-os-sub012/internal/threshold/domain"
)

func (s *Server) ConfigureThreshold(c *gin.Context) {
	var req thresholddomain.ConfigureThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	threshold, err := s.thresholdSvc.Configure(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, threshold)
}

func (s *Server) ListThresholds(c *gin.Context) {
	thresholds, err := s.thresholdSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"thresholds": thresholds})
}

func (s *Server) CheckThresholds(c *gin.Context) {
	asOf, err := parseOptionalTime(c.Query("as_of"), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statuses, err := s.thresholdSvc.Check(c.Request.Context(), thresholddomain.CheckThresholdsRequest{
		AsOf:         asOf,
		VerticalSlug: c.Query("vertical"),
		TerritoryID:  c.Query("territory_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

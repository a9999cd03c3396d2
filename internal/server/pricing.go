package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/uaesivakumar/upr-os-sub012/internal/pricing/domain"
)

func (s *Server) UpsertPricing(c *gin.Context) {
	var req pricingdomain.UpsertPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pricing, err := s.pricingSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pricing)
}

func (s *Server) ListPricing(c *gin.Context) {
	req := pricingdomain.ListPricingRequest{
		Provider: c.Query("provider"),
		Model:    c.Query("model"),
	}

	rows, err := s.pricingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pricing": rows})
}

func (s *Server) ResolvePricing(c *gin.Context) {
	asOf, err := parseOptionalTime(c.Query("as_of"), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	pricing, err := s.pricingSvc.Resolve(c.Request.Context(), pricingdomain.ResolvePricingRequest{
		Provider:     c.Query("provider"),
		Model:        c.Query("model"),
		ModelVersion: c.Query("model_version"),
		AsOf:         asOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pricing)
}

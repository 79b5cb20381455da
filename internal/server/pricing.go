package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/resailhq/resail/internal/pricing/domain"
)

// @Summary      Calculate Price
// @Description  Compute the plan-based service fee breakdown
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        request body pricingdomain.CalculateRequest true "Calculate Request"
// @Success      200  {object}  pricingdomain.Calculation
// @Router       /pricing/calculate [post]
func (s *Server) CalculatePrice(c *gin.Context) {
	var req pricingdomain.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.pricingSvc.Calculate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Calculate Legacy Price
// @Description  Recompute a historical per-account price
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        request body pricingdomain.LegacyCalculateRequest true "Legacy Calculate Request"
// @Success      200  {object}  pricingdomain.Calculation
// @Router       /pricing/calculate-legacy [post]
func (s *Server) CalculateLegacyPrice(c *gin.Context) {
	var req pricingdomain.LegacyCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.pricingSvc.CalculateLegacy(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List Plans
// @Description  List the available pricing plans
// @Tags         plans
// @Accept       json
// @Produce      json
// @Success      200  {object}  []plandomain.Plan
// @Router       /plans [get]
func (s *Server) ListPlans(c *gin.Context) {
	resp, err := s.planSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

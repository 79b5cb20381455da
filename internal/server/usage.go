package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/resailhq/resail/internal/usage/domain"
)

type recordUsageRequest struct {
	AccountEmail  string         `json:"account_email"`
	RecordedAt    time.Time      `json:"recorded_at"`
	MessagesCount int64          `json:"messages_count"`
	TokensUsed    int64          `json:"tokens_used"`
	CostCents     int64          `json:"cost_cents"`
	Metadata      map[string]any `json:"metadata"`
}

// @Summary      Record Usage
// @Description  Ingest one usage measurement for a linked account
// @Tags         usage
// @Accept       json
// @Produce      json
// @Param        request body recordUsageRequest true "Record Usage Request"
// @Success      200  {object}  usagedomain.UsageRecord
// @Router       /usage [post]
func (s *Server) RecordUsage(c *gin.Context) {
	var req recordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.usageSvc.Record(c.Request.Context(), usagedomain.RecordRequest{
		AccountEmail:  strings.TrimSpace(req.AccountEmail),
		RecordedAt:    req.RecordedAt,
		MessagesCount: req.MessagesCount,
		TokensUsed:    req.TokensUsed,
		CostCents:     req.CostCents,
		Metadata:      req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Summarize Usage
// @Description  Sum usage for a customer over a half-open period
// @Tags         usage
// @Accept       json
// @Produce      json
// @Param        id            path   string  true  "Customer ID"
// @Param        period_start  query  string  true  "Period Start (RFC3339)"
// @Param        period_end    query  string  true  "Period End (RFC3339)"
// @Success      200  {object}  usagedomain.Summary
// @Router       /customers/{id}/usage/summary [get]
func (s *Server) SummarizeUsage(c *gin.Context) {
	periodStart, err := time.Parse(time.RFC3339, strings.TrimSpace(c.Query("period_start")))
	if err != nil {
		AbortWithError(c, newValidationError("period_start", "invalid_period_start", "invalid period_start"))
		return
	}
	periodEnd, err := time.Parse(time.RFC3339, strings.TrimSpace(c.Query("period_end")))
	if err != nil {
		AbortWithError(c, newValidationError("period_end", "invalid_period_end", "invalid period_end"))
		return
	}

	resp, err := s.usageSvc.Summarize(c.Request.Context(), usagedomain.SummarizeRequest{
		CustomerID:  strings.TrimSpace(c.Param("id")),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

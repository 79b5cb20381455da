package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/resailhq/resail/internal/audit/domain"
)

// @Summary      List Audit Logs
// @Description  List recent audit log entries
// @Tags         audit
// @Accept       json
// @Produce      json
// @Param        action       query  string  false  "Action"
// @Param        target_type  query  string  false  "Target Type"
// @Param        target_id    query  string  false  "Target ID"
// @Param        actor_type   query  string  false  "Actor Type"
// @Param        start_at     query  string  false  "Start At (RFC3339)"
// @Param        end_at       query  string  false  "End At (RFC3339)"
// @Param        limit        query  int     false  "Limit"
// @Success      200  {object}  []auditdomain.AuditLog
// @Router       /audit-logs [get]
func (s *Server) ListAuditLogs(c *gin.Context) {
	if s.auditSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	startAt, err := parseOptionalTime(c.Query("start_at"))
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid start_at"))
		return
	}
	endAt, err := parseOptionalTime(c.Query("end_at"))
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid end_at"))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   strings.TrimSpace(c.Query("target_id")),
		ActorType:  strings.TrimSpace(c.Query("actor_type")),
		StartAt:    startAt,
		EndAt:      endAt,
		Limit:      limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseOptionalTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

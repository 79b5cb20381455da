package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountlinkdomain "github.com/resailhq/resail/internal/accountlink/domain"
	"github.com/resailhq/resail/internal/auditcontext"
)

type linkAccountRequest struct {
	ThirdPartyEmail string `json:"third_party_email"`
	Actor           string `json:"actor"`
}

// @Summary      Link Account
// @Description  Link a third-party assistant account to a customer
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        id      path  string              true  "Customer ID"
// @Param        request body  linkAccountRequest  true  "Link Request"
// @Success      200  {object}  accountlinkdomain.AccountLink
// @Router       /customers/{id}/links [post]
func (s *Server) LinkAccount(c *gin.Context) {
	var req linkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		_, actor = auditcontext.ActorFromContext(c.Request.Context())
	}

	resp, err := s.accountLinkSvc.Link(c.Request.Context(), accountlinkdomain.LinkRequest{
		CustomerID:      strings.TrimSpace(c.Param("id")),
		ThirdPartyEmail: strings.TrimSpace(req.ThirdPartyEmail),
		Actor:           actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), "account.link", "account_link", &targetID, map[string]any{
			"customer_id": resp.CustomerID.String(),
			"linked_by":   resp.LinkedBy,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type unlinkAccountRequest struct {
	ThirdPartyEmail string `json:"third_party_email"`
}

// @Summary      Unlink Account
// @Description  Deactivate the link between a customer and a third-party account
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        id      path  string                true  "Customer ID"
// @Param        request body  unlinkAccountRequest  true  "Unlink Request"
// @Success      200  {object}  map[string]string
// @Router       /customers/{id}/links [delete]
func (s *Server) UnlinkAccount(c *gin.Context) {
	var req unlinkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID := strings.TrimSpace(c.Param("id"))
	err := s.accountLinkSvc.Unlink(c.Request.Context(), accountlinkdomain.UnlinkRequest{
		CustomerID:      customerID,
		ThirdPartyEmail: strings.TrimSpace(req.ThirdPartyEmail),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), "account.unlink", "account_link", nil, map[string]any{
			"customer_id": customerID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      List Active Links
// @Description  List the currently linked third-party accounts for a customer
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  []accountlinkdomain.AccountLink
// @Router       /customers/{id}/links [get]
func (s *Server) ListActiveLinks(c *gin.Context) {
	resp, err := s.accountLinkSvc.ListActive(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Link History
// @Description  List every past and present link for a customer
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  []accountlinkdomain.AccountLink
// @Router       /customers/{id}/links/history [get]
func (s *Server) ListLinkHistory(c *gin.Context) {
	resp, err := s.accountLinkSvc.ListHistory(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

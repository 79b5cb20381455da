package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/resailhq/resail/internal/customer/domain"
	pricingdomain "github.com/resailhq/resail/internal/pricing/domain"
	"github.com/resailhq/resail/pkg/db/pagination"
)

type createCustomerRequest struct {
	Organization     string `json:"organization"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	PlanCode         string `json:"plan_code"`
	BillingCycle     string `json:"billing_cycle"`
	PaymentMethod    string `json:"payment_method"`
	PaymentConfirmed bool   `json:"payment_confirmed"`
}

// @Summary      Create Customer
// @Description  Create a new customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body createCustomerRequest true "Create Customer Request"
// @Success      200  {object}  customerdomain.Customer
// @Router       /customers [post]
func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Organization:     strings.TrimSpace(req.Organization),
		Name:             strings.TrimSpace(req.Name),
		Email:            strings.TrimSpace(req.Email),
		PlanCode:         strings.TrimSpace(req.PlanCode),
		BillingCycle:     strings.TrimSpace(req.BillingCycle),
		PaymentMethod:    strings.TrimSpace(req.PaymentMethod),
		PaymentConfirmed: req.PaymentConfirmed,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), "customer.create", "customer", &targetID, map[string]any{
			"customer_id": resp.ID.String(),
			"plan_code":   resp.PlanCode,
			"status":      string(resp.Status),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type transitionCustomerRequest struct {
	Target string `json:"target"`
}

// @Summary      Transition Customer
// @Description  Move a customer to a new lifecycle status
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id      path  string                     true  "Customer ID"
// @Param        request body  transitionCustomerRequest  true  "Transition Request"
// @Success      200  {object}  customerdomain.Customer
// @Router       /customers/{id}/transition [post]
func (s *Server) TransitionCustomer(c *gin.Context) {
	var req transitionCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Transition(c.Request.Context(), customerdomain.TransitionRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Target: strings.TrimSpace(req.Target),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), "customer.transition", "customer", &targetID, map[string]any{
			"customer_id": resp.ID.String(),
			"status":      string(resp.Status),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Customers
// @Description  List customers with optional status and plan filters
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        status      query  string  false  "Status"
// @Param        plan_code   query  string  false  "Plan Code"
// @Param        page_token  query  string  false  "Page Token"
// @Param        page_size   query  int     false  "Page Size"
// @Success      200  {object}  customerdomain.ListCustomerResponse
// @Router       /customers [get]
func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		PlanCode string `form:"plan_code"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Status:    strings.TrimSpace(query.Status),
		PlanCode:  strings.TrimSpace(query.PlanCode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Customer
// @Description  Get customer by ID
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  customerdomain.Customer
// @Router       /customers/{id} [get]
func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// QuoteCustomer prices the customer's current plan and cycle against the
// number of accounts linked right now.
//
// @Summary      Quote Customer
// @Description  Compute the current service fee for a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  pricingdomain.Calculation
// @Router       /customers/{id}/quote [get]
func (s *Server) QuoteCustomer(c *gin.Context) {
	ctx := c.Request.Context()

	customer, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	links, err := s.accountLinkSvc.ListActive(ctx, customer.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The fee is flat per customer, so a customer with no linked accounts
	// yet is quoted as a single-account customer.
	accountCount := int64(len(links))
	if accountCount < 1 {
		accountCount = 1
	}

	resp, err := s.pricingSvc.Calculate(ctx, pricingdomain.CalculateRequest{
		PlanCode:     customer.PlanCode,
		AccountCount: accountCount,
		BillingCycle: string(customer.BillingCycle),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

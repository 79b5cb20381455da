package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountlinkdomain "github.com/resailhq/resail/internal/accountlink/domain"
	customerdomain "github.com/resailhq/resail/internal/customer/domain"
	plandomain "github.com/resailhq/resail/internal/plan/domain"
	pricingdomain "github.com/resailhq/resail/internal/pricing/domain"
	usagedomain "github.com/resailhq/resail/internal/usage/domain"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string { return e.Code }

func invalidRequestError() error {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

func newValidationError(field, code, message string) error {
	return &apiError{
		Status:  http.StatusUnprocessableEntity,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// AbortWithError renders domain errors as structured JSON responses.
// Unrecognized errors become opaque 500s; their details stay in the logs.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, plandomain.ErrNotFound),
		errors.Is(err, accountlinkdomain.ErrCustomerNotFound),
		errors.Is(err, accountlinkdomain.ErrLinkNotFound):
		status = http.StatusNotFound
		code = err.Error()
		message = "resource not found"
	case errors.Is(err, accountlinkdomain.ErrEmailAlreadyLinked):
		status = http.StatusConflict
		code = err.Error()
		message = "third-party account is already linked"
	case errors.Is(err, accountlinkdomain.ErrCustomerCancelled):
		status = http.StatusConflict
		code = err.Error()
		message = "customer is cancelled"
	case errors.Is(err, customerdomain.ErrInvalidTransition):
		status = http.StatusConflict
		code = "invalid_transition"
		message = err.Error()
	case errors.Is(err, ErrTooManyRequests):
		status = http.StatusTooManyRequests
		code = err.Error()
		message = "rate limit exceeded"
	case errors.Is(err, ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
		code = err.Error()
		message = "service unavailable"
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
		code = err.Error()
		message = "validation failed"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"code":    code,
		"message": message,
	}})
}

func isValidationError(err error) bool {
	validation := []error{
		customerdomain.ErrInvalidID,
		customerdomain.ErrInvalidOrganization,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		customerdomain.ErrInvalidPlan,
		customerdomain.ErrInvalidBillingCycle,
		customerdomain.ErrInvalidPaymentMethod,
		customerdomain.ErrInvalidStatus,
		accountlinkdomain.ErrInvalidEmail,
		accountlinkdomain.ErrInvalidActor,
		pricingdomain.ErrInvalidAccountCount,
		pricingdomain.ErrInvalidBillingCycle,
		pricingdomain.ErrInvalidUnitPrice,
		pricingdomain.ErrInvalidTaxRate,
		plandomain.ErrInvalidCode,
		usagedomain.ErrAccountNotLinked,
		usagedomain.ErrNegativeUsage,
		usagedomain.ErrInvalidRecordedAt,
		usagedomain.ErrInvalidCustomer,
		usagedomain.ErrInvalidPeriod,
	}
	for _, candidate := range validation {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

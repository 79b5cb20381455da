package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resailhq/resail/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	Organization  string `json:"organization"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PlanCode      string `json:"plan_code"`
	BillingCycle  string `json:"billing_cycle"`
	PaymentMethod string `json:"payment_method"`

	// PaymentConfirmed provisions the customer directly into active
	// instead of trial (the payment method was verified out of band).
	PaymentConfirmed bool `json:"payment_confirmed"`
}

type TransitionRequest struct {
	ID     string `json:"id"`
	Target string `json:"target"`
}

type GetCustomerRequest struct {
	ID string `json:"id"`
}

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
	Status    string
	PlanCode  string
}

type ListCustomerResponse struct {
	Customers []Customer          `json:"customers"`
	PageInfo  pagination.PageInfo `json:"page_info"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	Transition(ctx context.Context, req TransitionRequest) (*Customer, error)
	GetByID(ctx context.Context, req GetCustomerRequest) (*Customer, error)
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)

	// RecordActivity bumps last_activity_at; used by collaborators whose
	// operations count as customer activity (e.g. account linking).
	RecordActivity(ctx context.Context, id snowflake.ID, at time.Time) error
}

var (
	ErrInvalidID            = errors.New("invalid_customer_id")
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidEmail         = errors.New("invalid_email")
	ErrInvalidPlan          = errors.New("invalid_plan")
	ErrInvalidBillingCycle  = errors.New("invalid_billing_cycle")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrNotFound             = errors.New("customer_not_found")
	ErrInvalidTransition    = errors.New("invalid_transition")
)

// InvalidTransitionError names the rejected source and target states so
// callers can render a precise message. It matches ErrInvalidTransition
// under errors.Is.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid_transition: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ParseID parses a customer id from its string form.
func ParseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ValidEmail performs the minimal shape check the intake form relies on.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t")
}

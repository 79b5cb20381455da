// Package domain owns the customer entity and its lifecycle state machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/resailhq/resail/internal/pricing/domain"
)

// Status is the customer lifecycle state.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// allowedTransitions is the complete transition table. cancelled is
// terminal; anything not listed is rejected. trial→suspended stays out
// pending a product decision.
var allowedTransitions = map[Status]map[Status]bool{
	StatusTrial: {
		StatusActive:    true,
		StatusCancelled: true,
	},
	StatusActive: {
		StatusSuspended: true,
		StatusCancelled: true,
	},
	StatusSuspended: {
		StatusActive:    true,
		StatusCancelled: true,
	},
	StatusCancelled: {},
}

// Valid reports whether the value is a known status.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo consults the transition table.
func (s Status) CanTransitionTo(target Status) bool {
	return allowedTransitions[s][target]
}

// PaymentMethod is how the customer settles invoices.
type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodInvoice PaymentMethod = "invoice"
)

// Valid reports whether the value is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodInvoice
}

// Customer is a billing customer of the reseller. Status is mutated only
// through the Transition operation; last_activity_at never precedes
// created_at.
type Customer struct {
	ID             snowflake.ID               `gorm:"primaryKey" json:"id"`
	Organization   string                     `gorm:"type:text;not null" json:"organization"`
	Name           string                     `gorm:"type:text;not null" json:"name"`
	Email          string                     `gorm:"type:text;not null" json:"email"`
	Status         Status                     `gorm:"type:text;not null;default:'trial';index" json:"status"`
	PlanCode       string                     `gorm:"type:text;not null" json:"plan_code"`
	BillingCycle   pricingdomain.BillingCycle `gorm:"type:text;not null;default:'monthly'" json:"billing_cycle"`
	PaymentMethod  PaymentMethod              `gorm:"type:text;not null;default:'card'" json:"payment_method"`
	CreatedAt      time.Time                  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	LastActivityAt time.Time                  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_activity_at"`
	UpdatedAt      time.Time                  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

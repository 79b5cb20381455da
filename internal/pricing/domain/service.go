package domain

import (
	"context"
	"errors"
)

type Service interface {
	Calculate(ctx context.Context, req CalculateRequest) (*Calculation, error)
	CalculateLegacy(ctx context.Context, req LegacyCalculateRequest) (*Calculation, error)
}

var (
	ErrInvalidAccountCount = errors.New("invalid_account_count")
	ErrInvalidBillingCycle = errors.New("invalid_billing_cycle")
	ErrInvalidUnitPrice    = errors.New("invalid_unit_price")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
)

// Package domain defines pricing inputs and the calculation value object.
package domain

import "strings"

// BillingCycle selects the price computation path.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// ParseBillingCycle normalizes and validates a billing cycle value.
func ParseBillingCycle(raw string) (BillingCycle, bool) {
	switch BillingCycle(strings.ToLower(strings.TrimSpace(raw))) {
	case BillingCycleMonthly:
		return BillingCycleMonthly, true
	case BillingCycleYearly:
		return BillingCycleYearly, true
	default:
		return "", false
	}
}

// Strategy tags which pricing model produced a calculation. The legacy
// per-account model exists only to reproduce historical records and is
// never substituted for plan-based pricing.
type Strategy string

const (
	StrategyPlanBased Strategy = "plan_based"
	StrategyLegacy    Strategy = "legacy"
)

// Calculation is the deterministic pricing breakdown. All monetary fields
// are non-negative integer cents; subtotal = base − discount and
// total = subtotal + tax always hold.
type Calculation struct {
	Strategy     Strategy     `json:"strategy"`
	PlanCode     string       `json:"plan_code,omitempty"`
	BillingCycle BillingCycle `json:"billing_cycle"`
	AccountCount int64        `json:"account_count"`

	BasePriceCents int64 `json:"base_price_cents"`
	DiscountCents  int64 `json:"discount_cents"`
	SubtotalCents  int64 `json:"subtotal_cents"`
	TaxCents       int64 `json:"tax_cents"`
	TotalCents     int64 `json:"total_cents"`
}

// CalculateRequest asks for current plan-based pricing.
type CalculateRequest struct {
	PlanCode     string `json:"plan_code"`
	AccountCount int64  `json:"account_count"`
	BillingCycle string `json:"billing_cycle"`
}

// LegacyCalculateRequest reproduces a historical per-account price. The
// unit price and tax rate come from the historical record, not the catalog.
type LegacyCalculateRequest struct {
	UnitPriceCents int64  `json:"unit_price_cents"`
	TaxRatePercent int64  `json:"tax_rate_percent"`
	AccountCount   int64  `json:"account_count"`
	BillingCycle   string `json:"billing_cycle"`
}

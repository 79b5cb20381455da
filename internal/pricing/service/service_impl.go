package service

import (
	"context"

	plandomain "github.com/resailhq/resail/internal/plan/domain"
	pricingdomain "github.com/resailhq/resail/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	monthsPerYear = 12

	// Plan-based pricing grants 10% off the yearly base. The legacy
	// per-account model used 15%; both are kept so historical totals
	// recompute exactly.
	yearlyDiscountPercent       = 10
	legacyYearlyDiscountPercent = 15
)

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	PlanSvc plandomain.Service
}

type Service struct {
	log     *zap.Logger
	planSvc plandomain.Service
}

func NewService(p ServiceParam) pricingdomain.Service {
	return &Service{
		log:     p.Log.Named("pricing.service"),
		planSvc: p.PlanSvc,
	}
}

// Calculate prices the flat per-customer management fee. The account count
// is validated and echoed for reporting but never multiplied into the
// price; the fee is per customer, not per seat.
func (s *Service) Calculate(ctx context.Context, req pricingdomain.CalculateRequest) (*pricingdomain.Calculation, error) {
	if req.AccountCount < 1 {
		return nil, pricingdomain.ErrInvalidAccountCount
	}
	cycle, ok := pricingdomain.ParseBillingCycle(req.BillingCycle)
	if !ok {
		return nil, pricingdomain.ErrInvalidBillingCycle
	}

	plan, err := s.planSvc.GetByCode(ctx, req.PlanCode)
	if err != nil {
		return nil, err
	}

	calc := compute(plan.UnitPriceCents, plan.TaxRatePercent, cycle, yearlyDiscountPercent)
	calc.Strategy = pricingdomain.StrategyPlanBased
	calc.PlanCode = plan.Code
	calc.AccountCount = req.AccountCount
	return calc, nil
}

// CalculateLegacy reproduces the pre-catalog per-account price. Inputs come
// from the historical record being replayed, so the unit price and tax rate
// are caller-supplied rather than resolved through the catalog.
func (s *Service) CalculateLegacy(ctx context.Context, req pricingdomain.LegacyCalculateRequest) (*pricingdomain.Calculation, error) {
	if req.AccountCount < 1 {
		return nil, pricingdomain.ErrInvalidAccountCount
	}
	if req.UnitPriceCents < 0 {
		return nil, pricingdomain.ErrInvalidUnitPrice
	}
	if req.TaxRatePercent < 0 {
		return nil, pricingdomain.ErrInvalidTaxRate
	}
	cycle, ok := pricingdomain.ParseBillingCycle(req.BillingCycle)
	if !ok {
		return nil, pricingdomain.ErrInvalidBillingCycle
	}

	perCustomer := req.UnitPriceCents * req.AccountCount
	calc := compute(perCustomer, req.TaxRatePercent, cycle, legacyYearlyDiscountPercent)
	calc.Strategy = pricingdomain.StrategyLegacy
	calc.AccountCount = req.AccountCount
	return calc, nil
}

// compute is the shared pure core. All arithmetic is integer cents; the
// tax truncates toward zero so the charged tax never exceeds the statutory
// rate times the subtotal.
func compute(monthlyBaseCents, taxRatePercent int64, cycle pricingdomain.BillingCycle, discountPercent int64) *pricingdomain.Calculation {
	base := monthlyBaseCents
	var discount int64
	if cycle == pricingdomain.BillingCycleYearly {
		base = monthlyBaseCents * monthsPerYear
		discount = base * discountPercent / 100
	}

	subtotal := base - discount
	tax := subtotal * taxRatePercent / 100
	total := subtotal + tax

	return &pricingdomain.Calculation{
		BillingCycle:   cycle,
		BasePriceCents: base,
		DiscountCents:  discount,
		SubtotalCents:  subtotal,
		TaxCents:       tax,
		TotalCents:     total,
	}
}

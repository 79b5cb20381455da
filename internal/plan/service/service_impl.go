package service

import (
	"context"
	"sort"
	"strings"

	plandomain "github.com/resailhq/resail/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

// Service serves plans from an in-memory snapshot taken at construction.
// The snapshot is never mutated, so concurrent reads need no locking.
type Service struct {
	log   *zap.Logger
	plans map[string]plandomain.Plan
}

// NewService loads the catalog once. A plan added to the database after
// startup is not visible until restart; the catalog is configuration.
func NewService(p ServiceParam) (plandomain.Service, error) {
	var plans []plandomain.Plan
	if err := p.DB.Find(&plans).Error; err != nil {
		return nil, err
	}

	byCode := make(map[string]plandomain.Plan, len(plans))
	for _, plan := range plans {
		byCode[plan.Code] = plan
	}

	log := p.Log.Named("plan.catalog")
	log.Info("plan catalog loaded", zap.Int("plans", len(byCode)))

	return &Service{
		log:   log,
		plans: byCode,
	}, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*plandomain.Plan, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, plandomain.ErrInvalidCode
	}
	plan, ok := s.plans[code]
	if !ok {
		return nil, plandomain.ErrNotFound
	}
	return &plan, nil
}

func (s *Service) List(ctx context.Context) ([]plandomain.Plan, error) {
	plans := make([]plandomain.Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		plans = append(plans, plan)
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].UnitPriceCents < plans[j].UnitPriceCents
	})
	return plans, nil
}

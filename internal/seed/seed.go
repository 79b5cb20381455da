// Package seed bootstraps reference data at startup.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/resailhq/resail/internal/plan/domain"
	"gorm.io/gorm"
)

var defaultPlans = []plandomain.Plan{
	{Code: "starter", Name: "Starter", UnitPriceCents: 1500, TaxRatePercent: 10},
	{Code: "plus", Name: "Plus", UnitPriceCents: 3000, TaxRatePercent: 10},
	{Code: "scale", Name: "Scale", UnitPriceCents: 9000, TaxRatePercent: 10},
}

// EnsurePlans seeds the plan catalog. Existing rows are left untouched,
// so price changes are an operator action, not a restart side effect.
func EnsurePlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, plan := range defaultPlans {
			var existing plandomain.Plan
			err := tx.WithContext(ctx).Where("code = ?", plan.Code).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			plan.ID = node.Generate()
			plan.CreatedAt = now
			plan.UpdatedAt = now
			if err := tx.WithContext(ctx).Create(&plan).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

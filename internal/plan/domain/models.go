// Package domain contains the subscription plan catalog model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Plan is a pricing tier for the managed-assistant service fee.
// Monetary values are integer cents; tax rate is an integer percent.
type Plan struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Code           string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	UnitPriceCents int64        `gorm:"not null" json:"unit_price_cents"`
	TaxRatePercent int64        `gorm:"not null" json:"tax_rate_percent"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

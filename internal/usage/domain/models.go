// Package domain contains persistence models for usage ingestion.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageRecord stores one dated measurement of assistant consumption.
// CustomerID and AccountLinkID are snapshots of the link state at ingest
// time, so summaries attribute usage to whoever owned the account when the
// usage happened.
type UsageRecord struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID `gorm:"not null;index" json:"customer_id"`
	AccountLinkID snowflake.ID `gorm:"not null;index" json:"-"`
	AccountEmail  string       `gorm:"type:text;not null" json:"account_email"`

	RecordedAt    time.Time `gorm:"not null;index" json:"recorded_at"`
	MessagesCount int64     `gorm:"not null" json:"messages_count"`
	TokensUsed    int64     `gorm:"not null" json:"tokens_used"`
	CostCents     int64     `gorm:"not null" json:"cost_cents"`

	RolledUp  bool              `gorm:"not null;default:false" json:"-"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// UsageRollup is a materialized per-customer, per-month summary kept fresh
// by the rollup worker for dashboard reads.
type UsageRollup struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID  snowflake.ID `gorm:"not null;index;uniqueIndex:ux_usage_rollup_period,priority:1" json:"customer_id"`
	PeriodStart time.Time    `gorm:"not null;uniqueIndex:ux_usage_rollup_period,priority:2" json:"period_start"`
	PeriodEnd   time.Time    `gorm:"not null" json:"period_end"`

	TotalMessages  int64     `gorm:"not null" json:"total_messages"`
	TotalTokens    int64     `gorm:"not null" json:"total_tokens"`
	TotalCostCents int64     `gorm:"not null" json:"total_cost_cents"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UsageRollup) TableName() string { return "usage_rollups" }

// Package domain owns the link between a customer and a third-party
// assistant account.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AccountLink associates a billing customer with one third-party account
// identity. Rows are never deleted; unlinking deactivates the row so the
// linkage history stays auditable. At most one active row may exist per
// third-party email system-wide.
type AccountLink struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID `gorm:"not null;index" json:"customer_id"`
	ThirdPartyEmail string       `gorm:"type:text;not null;index" json:"third_party_email"`
	IsActive        bool         `gorm:"not null;default:true" json:"is_active"`
	LinkedAt        time.Time    `gorm:"not null" json:"linked_at"`
	LinkedBy        string       `gorm:"type:text;not null" json:"linked_by"`
	UnlinkedAt      *time.Time   `gorm:"" json:"unlinked_at,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (AccountLink) TableName() string { return "account_links" }

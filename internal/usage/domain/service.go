package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type RecordRequest struct {
	AccountEmail  string         `json:"account_email"`
	RecordedAt    time.Time      `json:"recorded_at"`
	MessagesCount int64          `json:"messages_count"`
	TokensUsed    int64          `json:"tokens_used"`
	CostCents     int64          `json:"cost_cents"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type SummarizeRequest struct {
	CustomerID  string    `json:"customer_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// Summary is the aggregate over a half-open period [start, end). An empty
// period sums to zeros; it is not an error.
type Summary struct {
	TotalMessages  int64 `json:"total_messages"`
	TotalTokens    int64 `json:"total_tokens"`
	TotalCostCents int64 `json:"total_cost_cents"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*UsageRecord, error)
	Summarize(ctx context.Context, req SummarizeRequest) (Summary, error)
}

// LinkRef is the cached resolution of an account email to its active link.
// The linking service invalidates entries when links change.
type LinkRef struct {
	LinkID     snowflake.ID
	CustomerID snowflake.ID
}

var (
	ErrAccountNotLinked  = errors.New("account_not_linked")
	ErrNegativeUsage     = errors.New("negative_usage")
	ErrInvalidRecordedAt = errors.New("invalid_recorded_at")
	ErrInvalidCustomer   = errors.New("invalid_customer")
	ErrInvalidPeriod     = errors.New("invalid_period")
)

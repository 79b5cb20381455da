package domain

import (
	"context"
	"errors"
)

// Service is the read-only plan catalog. Contents are seeded at process
// start and never mutated through this interface.
type Service interface {
	GetByCode(ctx context.Context, code string) (*Plan, error)
	List(ctx context.Context) ([]Plan, error)
}

var (
	ErrInvalidCode = errors.New("invalid_plan_code")
	ErrNotFound    = errors.New("plan_not_found")
)

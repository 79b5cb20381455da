package domain

import (
	"context"
	"errors"
)

type LinkRequest struct {
	CustomerID      string `json:"customer_id"`
	ThirdPartyEmail string `json:"third_party_email"`
	Actor           string `json:"actor"`
}

type UnlinkRequest struct {
	CustomerID      string `json:"customer_id"`
	ThirdPartyEmail string `json:"third_party_email"`
}

type Service interface {
	Link(ctx context.Context, req LinkRequest) (*AccountLink, error)
	Unlink(ctx context.Context, req UnlinkRequest) error
	ListActive(ctx context.Context, customerID string) ([]AccountLink, error)
	ListHistory(ctx context.Context, customerID string) ([]AccountLink, error)
}

var (
	ErrInvalidEmail      = errors.New("invalid_third_party_email")
	ErrInvalidActor      = errors.New("invalid_actor")
	ErrCustomerNotFound  = errors.New("customer_not_found")
	ErrCustomerCancelled = errors.New("customer_cancelled")
	ErrEmailAlreadyLinked = errors.New("email_already_linked")
	ErrLinkNotFound      = errors.New("link_not_found")
)

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountlinkdomain "github.com/resailhq/resail/internal/accountlink/domain"
	"github.com/resailhq/resail/internal/cache"
	"github.com/resailhq/resail/internal/clock"
	customerdomain "github.com/resailhq/resail/internal/customer/domain"
	"github.com/resailhq/resail/internal/events"
	"github.com/resailhq/resail/internal/observability/metrics"
	usagedomain "github.com/resailhq/resail/internal/usage/domain"
	"github.com/resailhq/resail/pkg/db/option"
	"github.com/resailhq/resail/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	CustomerSvc customerdomain.Service
	Outbox      *events.Outbox
	LinkCache   cache.Cache[string, usagedomain.LinkRef]
	Metrics     *metrics.DomainMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	customerSvc customerdomain.Service
	outbox      *events.Outbox
	linkCache   cache.Cache[string, usagedomain.LinkRef]
	metrics     *metrics.DomainMetrics
	linkrepo    repository.Repository[accountlinkdomain.AccountLink]
}

func NewService(p ServiceParam) accountlinkdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("accountlink.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		customerSvc: p.CustomerSvc,
		outbox:      p.Outbox,
		linkCache:   p.LinkCache,
		metrics:     p.Metrics,
		linkrepo:    repository.ProvideStore[accountlinkdomain.AccountLink](p.DB),
	}
}

// Link attaches a third-party account to a customer. The insert is
// conditioned on no active link existing for the email, and a partial
// unique index backs the same invariant, so of two racing calls exactly
// one succeeds and the other sees the conflict.
func (s *Service) Link(ctx context.Context, req accountlinkdomain.LinkRequest) (*accountlinkdomain.AccountLink, error) {
	email := strings.ToLower(strings.TrimSpace(req.ThirdPartyEmail))
	if !customerdomain.ValidEmail(email) {
		return nil, accountlinkdomain.ErrInvalidEmail
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return nil, accountlinkdomain.ErrInvalidActor
	}

	customer, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{ID: req.CustomerID})
	if err != nil {
		if errors.Is(err, customerdomain.ErrNotFound) || errors.Is(err, customerdomain.ErrInvalidID) {
			return nil, accountlinkdomain.ErrCustomerNotFound
		}
		return nil, err
	}
	if customer.Status == customerdomain.StatusCancelled {
		return nil, accountlinkdomain.ErrCustomerCancelled
	}

	now := s.clock.Now()
	record := &accountlinkdomain.AccountLink{
		ID:              s.genID.Generate(),
		CustomerID:      customer.ID,
		ThirdPartyEmail: email,
		IsActive:        true,
		LinkedAt:        now,
		LinkedBy:        actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO account_links (id, customer_id, third_party_email, is_active, linked_at, linked_by, created_at, updated_at)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE NOT EXISTS (
			SELECT 1 FROM account_links WHERE third_party_email = ? AND is_active
		 )`,
		record.ID,
		record.CustomerID,
		record.ThirdPartyEmail,
		true,
		record.LinkedAt,
		record.LinkedBy,
		record.CreatedAt,
		record.UpdatedAt,
		record.ThirdPartyEmail,
	)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, accountlinkdomain.ErrEmailAlreadyLinked
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, accountlinkdomain.ErrEmailAlreadyLinked
	}

	if s.linkCache != nil {
		s.linkCache.Delete(email)
	}
	if s.metrics != nil {
		s.metrics.IncLinkCreated(ctx)
	}

	if err := s.customerSvc.RecordActivity(ctx, customer.ID, now); err != nil {
		s.log.Warn("failed to record customer activity",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
	}

	if s.outbox != nil {
		_ = s.outbox.Publish(ctx, events.Event{
			Type:      events.EventAccountLinked,
			DedupeKey: "account.linked:" + record.ID.String(),
			Payload: events.AccountLinkPayload{
				LinkID:          record.ID.String(),
				CustomerID:      customer.ID.String(),
				ThirdPartyEmail: email,
				Actor:           actor,
			}.ToMap(),
		})
	}

	return record, nil
}

// Unlink deactivates the matching active link. The row is retained; the
// linkage log is append-only.
func (s *Service) Unlink(ctx context.Context, req accountlinkdomain.UnlinkRequest) error {
	customerID, err := customerdomain.ParseID(req.CustomerID)
	if err != nil {
		return accountlinkdomain.ErrCustomerNotFound
	}
	email := strings.ToLower(strings.TrimSpace(req.ThirdPartyEmail))
	if email == "" {
		return accountlinkdomain.ErrInvalidEmail
	}

	now := s.clock.Now()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE account_links
		 SET is_active = ?, unlinked_at = ?, updated_at = ?
		 WHERE customer_id = ? AND third_party_email = ? AND is_active`,
		false,
		now,
		now,
		customerID,
		email,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return accountlinkdomain.ErrLinkNotFound
	}

	if s.linkCache != nil {
		s.linkCache.Delete(email)
	}
	if s.metrics != nil {
		s.metrics.IncLinkRemoved(ctx)
	}

	if s.outbox != nil {
		_ = s.outbox.Publish(ctx, events.Event{
			Type:      events.EventAccountUnlinked,
			DedupeKey: "account.unlinked:" + customerID.String() + ":" + email + ":" + now.UTC().Format("20060102T150405.000"),
			Payload: events.AccountLinkPayload{
				CustomerID:      customerID.String(),
				ThirdPartyEmail: email,
			}.ToMap(),
		})
	}

	return nil
}

func (s *Service) ListActive(ctx context.Context, customerID string) ([]accountlinkdomain.AccountLink, error) {
	id, err := customerdomain.ParseID(customerID)
	if err != nil {
		return nil, accountlinkdomain.ErrCustomerNotFound
	}
	return s.list(ctx, &accountlinkdomain.AccountLink{CustomerID: id, IsActive: true})
}

// ListHistory returns every linkage event for the customer, active or not.
func (s *Service) ListHistory(ctx context.Context, customerID string) ([]accountlinkdomain.AccountLink, error) {
	id, err := customerdomain.ParseID(customerID)
	if err != nil {
		return nil, accountlinkdomain.ErrCustomerNotFound
	}
	return s.list(ctx, &accountlinkdomain.AccountLink{CustomerID: id})
}

func (s *Service) list(ctx context.Context, filter *accountlinkdomain.AccountLink) ([]accountlinkdomain.AccountLink, error) {
	items, err := s.linkrepo.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{Field: "linked_at", Allow: map[string]bool{"linked_at": true}, Desc: true}),
	)
	if err != nil {
		return nil, err
	}
	links := make([]accountlinkdomain.AccountLink, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		links = append(links, *item)
	}
	return links, nil
}

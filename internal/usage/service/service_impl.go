package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountlinkdomain "github.com/resailhq/resail/internal/accountlink/domain"
	"github.com/resailhq/resail/internal/cache"
	"github.com/resailhq/resail/internal/clock"
	customerdomain "github.com/resailhq/resail/internal/customer/domain"
	"github.com/resailhq/resail/internal/events"
	"github.com/resailhq/resail/internal/observability/metrics"
	usagedomain "github.com/resailhq/resail/internal/usage/domain"
	"github.com/resailhq/resail/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const linkCacheTTL = 30 * time.Second

// NewLinkResolverCache builds the hot-path cache for active-link lookups.
func NewLinkResolverCache() cache.Cache[string, usagedomain.LinkRef] {
	return cache.NewTTLCache[string, usagedomain.LinkRef]()
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Cache   cache.Cache[string, usagedomain.LinkRef]
	Outbox  *events.Outbox
	Metrics *metrics.DomainMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clock     clock.Clock
	linkCache cache.Cache[string, usagedomain.LinkRef]
	outbox    *events.Outbox
	metrics   *metrics.DomainMetrics
	usagerepo repository.Repository[usagedomain.UsageRecord]
	linkrepo  repository.Repository[accountlinkdomain.AccountLink]
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		genID:     p.GenID,
		clock:     p.Clock,
		linkCache: p.Cache,
		outbox:    p.Outbox,
		metrics:   p.Metrics,
		usagerepo: repository.ProvideStore[usagedomain.UsageRecord](p.DB),
		linkrepo:  repository.ProvideStore[accountlinkdomain.AccountLink](p.DB),
	}
}

// Record ingests one usage measurement. The owning customer is resolved
// through the active link for the account email and snapshotted onto the
// record, so later unlinking never rewrites history.
func (s *Service) Record(ctx context.Context, req usagedomain.RecordRequest) (*usagedomain.UsageRecord, error) {
	email := strings.ToLower(strings.TrimSpace(req.AccountEmail))
	if email == "" {
		return nil, usagedomain.ErrAccountNotLinked
	}
	if req.RecordedAt.IsZero() {
		return nil, usagedomain.ErrInvalidRecordedAt
	}
	if req.MessagesCount < 0 || req.TokensUsed < 0 || req.CostCents < 0 {
		return nil, usagedomain.ErrNegativeUsage
	}

	ref, err := s.resolveActiveLink(ctx, email)
	if err != nil {
		return nil, err
	}

	record := &usagedomain.UsageRecord{
		ID:            s.genID.Generate(),
		CustomerID:    ref.CustomerID,
		AccountLinkID: ref.LinkID,
		AccountEmail:  email,
		RecordedAt:    req.RecordedAt.UTC(),
		MessagesCount: req.MessagesCount,
		TokensUsed:    req.TokensUsed,
		CostCents:     req.CostCents,
		CreatedAt:     s.clock.Now(),
	}
	if req.Metadata != nil {
		record.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.usagerepo.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncUsageRecorded(ctx)
	}

	if s.outbox != nil {
		_ = s.outbox.Publish(ctx, events.Event{
			Type:      events.EventUsageRecorded,
			DedupeKey: "usage.recorded:" + record.ID.String(),
			Payload: events.UsagePayload{
				UsageRecordID: record.ID.String(),
				CustomerID:    record.CustomerID.String(),
				AccountEmail:  email,
			}.ToMap(),
		})
	}

	return record, nil
}

// Summarize sums usage attributed to the customer over [periodStart,
// periodEnd). Attribution was fixed at ingest time, so links changed since
// then do not move historical usage between customers.
func (s *Service) Summarize(ctx context.Context, req usagedomain.SummarizeRequest) (usagedomain.Summary, error) {
	customerID, err := customerdomain.ParseID(req.CustomerID)
	if err != nil {
		return usagedomain.Summary{}, usagedomain.ErrInvalidCustomer
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		return usagedomain.Summary{}, usagedomain.ErrInvalidPeriod
	}

	var summary usagedomain.Summary
	err = s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(messages_count), 0) AS total_messages,
		        COALESCE(SUM(tokens_used), 0) AS total_tokens,
		        COALESCE(SUM(cost_cents), 0) AS total_cost_cents
		 FROM usage_records
		 WHERE customer_id = ? AND recorded_at >= ? AND recorded_at < ?`,
		customerID,
		req.PeriodStart.UTC(),
		req.PeriodEnd.UTC(),
	).Scan(&summary).Error
	if err != nil {
		return usagedomain.Summary{}, err
	}
	return summary, nil
}

func (s *Service) resolveActiveLink(ctx context.Context, email string) (usagedomain.LinkRef, error) {
	if ref, ok := s.linkCache.Get(email); ok {
		return ref, nil
	}

	link, err := s.linkrepo.FindOne(ctx, &accountlinkdomain.AccountLink{
		ThirdPartyEmail: email,
		IsActive:        true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return usagedomain.LinkRef{}, usagedomain.ErrAccountNotLinked
		}
		return usagedomain.LinkRef{}, err
	}

	ref := usagedomain.LinkRef{LinkID: link.ID, CustomerID: link.CustomerID}
	s.linkCache.Set(email, ref, linkCacheTTL)
	return ref, nil
}

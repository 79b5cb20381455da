package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resailhq/resail/internal/clock"
	customerdomain "github.com/resailhq/resail/internal/customer/domain"
	"github.com/resailhq/resail/internal/events"
	"github.com/resailhq/resail/internal/observability/metrics"
	plandomain "github.com/resailhq/resail/internal/plan/domain"
	pricingdomain "github.com/resailhq/resail/internal/pricing/domain"
	"github.com/resailhq/resail/pkg/db/option"
	"github.com/resailhq/resail/pkg/db/pagination"
	"github.com/resailhq/resail/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	PlanSvc plandomain.Service
	Outbox  *events.Outbox
	Metrics *metrics.DomainMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID        *snowflake.Node
	clock        clock.Clock
	planSvc      plandomain.Service
	outbox       *events.Outbox
	metrics      *metrics.DomainMetrics
	customerrepo repository.Repository[customerdomain.Customer]
}

func NewService(p ServiceParam) customerdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("customer.service"),

		genID:        p.GenID,
		clock:        p.Clock,
		planSvc:      p.PlanSvc,
		outbox:       p.Outbox,
		metrics:      p.Metrics,
		customerrepo: repository.ProvideStore[customerdomain.Customer](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (*customerdomain.Customer, error) {
	organization := strings.TrimSpace(req.Organization)
	if organization == "" {
		return nil, customerdomain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, customerdomain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !customerdomain.ValidEmail(email) {
		return nil, customerdomain.ErrInvalidEmail
	}

	plan, err := s.planSvc.GetByCode(ctx, req.PlanCode)
	if err != nil {
		if errors.Is(err, plandomain.ErrNotFound) || errors.Is(err, plandomain.ErrInvalidCode) {
			return nil, customerdomain.ErrInvalidPlan
		}
		return nil, err
	}

	cycle, ok := pricingdomain.ParseBillingCycle(req.BillingCycle)
	if !ok {
		return nil, customerdomain.ErrInvalidBillingCycle
	}

	method := customerdomain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
	if !method.Valid() {
		return nil, customerdomain.ErrInvalidPaymentMethod
	}

	status := customerdomain.StatusTrial
	if req.PaymentConfirmed {
		status = customerdomain.StatusActive
	}

	now := s.clock.Now()
	record := &customerdomain.Customer{
		ID:             s.genID.Generate(),
		Organization:   organization,
		Name:           name,
		Email:          email,
		Status:         status,
		PlanCode:       plan.Code,
		BillingCycle:   cycle,
		PaymentMethod:  method,
		CreatedAt:      now,
		LastActivityAt: now,
		UpdatedAt:      now,
	}

	if err := s.customerrepo.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.outbox != nil {
		_ = s.outbox.Publish(ctx, events.Event{
			Type:      events.EventCustomerCreated,
			DedupeKey: "customer.created:" + record.ID.String(),
			Payload: events.CustomerPayload{
				CustomerID: record.ID.String(),
				Status:     string(record.Status),
				PlanCode:   record.PlanCode,
			}.ToMap(),
		})
	}

	return record, nil
}

// Transition applies the lifecycle state machine. The status write is a
// conditional update on the current status, so two racing transitions for
// the same customer cannot both win.
func (s *Service) Transition(ctx context.Context, req customerdomain.TransitionRequest) (*customerdomain.Customer, error) {
	id, err := customerdomain.ParseID(req.ID)
	if err != nil {
		return nil, err
	}

	target := customerdomain.Status(strings.ToLower(strings.TrimSpace(req.Target)))
	if !target.Valid() {
		return nil, customerdomain.ErrInvalidStatus
	}

	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !record.Status.CanTransitionTo(target) {
		return nil, &customerdomain.InvalidTransitionError{From: record.Status, To: target}
	}

	now := s.clock.Now()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET status = ?, last_activity_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		target,
		now,
		now,
		id,
		record.Status,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost a race: someone else moved the customer first. Re-read and
		// report the transition against the state that actually holds.
		current, loadErr := s.load(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, &customerdomain.InvalidTransitionError{From: current.Status, To: target}
	}

	s.log.Info("customer transitioned",
		zap.String("customer_id", id.String()),
		zap.String("from", string(record.Status)),
		zap.String("to", string(target)),
	)
	if s.metrics != nil {
		s.metrics.IncTransition(ctx, string(record.Status), string(target))
	}

	if s.outbox != nil {
		_ = s.outbox.Publish(ctx, events.Event{
			Type:      events.EventCustomerTransitioned,
			DedupeKey: "customer.transitioned:" + id.String() + ":" + now.Format(time.RFC3339Nano),
			Payload: events.CustomerPayload{
				CustomerID: id.String(),
				Status:     string(target),
				PlanCode:   record.PlanCode,
			}.ToMap(),
		})
	}

	record.Status = target
	record.LastActivityAt = now
	record.UpdatedAt = now
	return record, nil
}

func (s *Service) GetByID(ctx context.Context, req customerdomain.GetCustomerRequest) (*customerdomain.Customer, error) {
	id, err := customerdomain.ParseID(req.ID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *Service) List(ctx context.Context, req customerdomain.ListCustomerRequest) (customerdomain.ListCustomerResponse, error) {
	filter := &customerdomain.Customer{}
	if status := strings.TrimSpace(req.Status); status != "" {
		parsed := customerdomain.Status(strings.ToLower(status))
		if !parsed.Valid() {
			return customerdomain.ListCustomerResponse{}, customerdomain.ErrInvalidStatus
		}
		filter.Status = parsed
	}
	if code := strings.TrimSpace(req.PlanCode); code != "" {
		filter.PlanCode = strings.ToLower(code)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.customerrepo.Find(ctx, filter,
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return customerdomain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(record *customerdomain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	records := make([]customerdomain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}

	resp := customerdomain.ListCustomerResponse{Customers: records}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) RecordActivity(ctx context.Context, id snowflake.ID, at time.Time) error {
	return s.db.WithContext(ctx).Exec(
		`UPDATE customers SET last_activity_at = ?, updated_at = ? WHERE id = ?`,
		at,
		at,
		id,
	).Error
}

func (s *Service) load(ctx context.Context, id snowflake.ID) (*customerdomain.Customer, error) {
	record, err := s.customerrepo.FindOne(ctx, &customerdomain.Customer{ID: id})
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, customerdomain.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountlinkdomain "github.com/resailhq/resail/internal/accountlink/domain"
	accountlinkservice "github.com/resailhq/resail/internal/accountlink/service"
	"github.com/resailhq/resail/internal/cache"
	"github.com/resailhq/resail/internal/clock"
	customerdomain "github.com/resailhq/resail/internal/customer/domain"
	customerservice "github.com/resailhq/resail/internal/customer/service"
	plandomain "github.com/resailhq/resail/internal/plan/domain"
	planservice "github.com/resailhq/resail/internal/plan/service"
	usagedomain "github.com/resailhq/resail/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type usageTestEnv struct {
	db          *gorm.DB
	usageSvc    usagedomain.Service
	linkSvc     accountlinkdomain.Service
	customerSvc customerdomain.Service
}

func setupUsageTestEnv(t *testing.T) *usageTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:usage_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&plandomain.Plan{},
		&customerdomain.Customer{},
		&accountlinkdomain.AccountLink{},
		&usagedomain.UsageRecord{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	seedPlan := plandomain.Plan{ID: node.Generate(), Code: "plus", Name: "Plus", UnitPriceCents: 3000, TaxRatePercent: 10}
	if err := db.Create(&seedPlan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	planSvc, err := planservice.NewService(planservice.ServiceParam{DB: db, Log: zap.NewNop()})
	if err != nil {
		t.Fatalf("plan service: %v", err)
	}
	customerSvc := customerservice.NewService(customerservice.ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.FixedClock{At: testTime},
		PlanSvc: planSvc,
	})

	linkCache := cache.NewTTLCache[string, usagedomain.LinkRef]()
	linkSvc := accountlinkservice.NewService(accountlinkservice.ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.FixedClock{At: testTime},
		CustomerSvc: customerSvc,
		LinkCache:   linkCache,
	})

	usageSvc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.FixedClock{At: testTime},
		Cache: linkCache,
	})

	return &usageTestEnv{
		db:          db,
		usageSvc:    usageSvc,
		linkSvc:     linkSvc,
		customerSvc: customerSvc,
	}
}

func (e *usageTestEnv) createLinkedCustomer(t *testing.T, customerEmail, accountEmail string) *customerdomain.Customer {
	t.Helper()
	ctx := context.Background()
	customer, err := e.customerSvc.Create(ctx, customerdomain.CreateCustomerRequest{
		Organization:  "Sakura Clinic",
		Name:          "Dr. Tanaka",
		Email:         customerEmail,
		PlanCode:      "plus",
		BillingCycle:  "monthly",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if _, err := e.linkSvc.Link(ctx, accountlinkdomain.LinkRequest{
		CustomerID:      customer.ID.String(),
		ThirdPartyEmail: accountEmail,
		Actor:           "ops",
	}); err != nil {
		t.Fatalf("link: %v", err)
	}
	return customer
}

func TestRecordRejectsUnlinkedAccount(t *testing.T) {
	env := setupUsageTestEnv(t)

	_, err := env.usageSvc.Record(context.Background(), usagedomain.RecordRequest{
		AccountEmail:  "nobody@provider.example",
		RecordedAt:    testTime,
		MessagesCount: 10,
	})
	if !errors.Is(err, usagedomain.ErrAccountNotLinked) {
		t.Fatalf("err = %v, want ErrAccountNotLinked", err)
	}
}

func TestRecordValidation(t *testing.T) {
	env := setupUsageTestEnv(t)
	env.createLinkedCustomer(t, "clinic@example.com", "assistant@provider.example")

	tests := []struct {
		name string
		req  usagedomain.RecordRequest
		want error
	}{
		{
			name: "zero recorded_at",
			req:  usagedomain.RecordRequest{AccountEmail: "assistant@provider.example", MessagesCount: 1},
			want: usagedomain.ErrInvalidRecordedAt,
		},
		{
			name: "negative messages",
			req:  usagedomain.RecordRequest{AccountEmail: "assistant@provider.example", RecordedAt: testTime, MessagesCount: -1},
			want: usagedomain.ErrNegativeUsage,
		},
		{
			name: "negative tokens",
			req:  usagedomain.RecordRequest{AccountEmail: "assistant@provider.example", RecordedAt: testTime, TokensUsed: -5},
			want: usagedomain.ErrNegativeUsage,
		},
		{
			name: "negative cost",
			req:  usagedomain.RecordRequest{AccountEmail: "assistant@provider.example", RecordedAt: testTime, CostCents: -5},
			want: usagedomain.ErrNegativeUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.usageSvc.Record(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecordSnapshotsOwnership(t *testing.T) {
	env := setupUsageTestEnv(t)
	first := env.createLinkedCustomer(t, "first@example.com", "assistant@provider.example")
	ctx := context.Background()

	record, err := env.usageSvc.Record(ctx, usagedomain.RecordRequest{
		AccountEmail:  "assistant@provider.example",
		RecordedAt:    testTime,
		MessagesCount: 40,
		TokensUsed:    9000,
		CostCents:     120,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if record.CustomerID != first.ID {
		t.Fatalf("customer = %s, want %s", record.CustomerID, first.ID)
	}

	// Move the account to another customer; historical usage must stay put.
	if err := env.linkSvc.Unlink(ctx, accountlinkdomain.UnlinkRequest{
		CustomerID:      first.ID.String(),
		ThirdPartyEmail: "assistant@provider.example",
	}); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	second := env.createLinkedCustomer(t, "second@example.com", "assistant@provider.example")

	later, err := env.usageSvc.Record(ctx, usagedomain.RecordRequest{
		AccountEmail:  "assistant@provider.example",
		RecordedAt:    testTime.Add(time.Hour),
		MessagesCount: 7,
	})
	if err != nil {
		t.Fatalf("record after relink: %v", err)
	}
	if later.CustomerID != second.ID {
		t.Fatalf("later customer = %s, want %s", later.CustomerID, second.ID)
	}

	window := usagedomain.SummarizeRequest{
		CustomerID:  first.ID.String(),
		PeriodStart: testTime.Add(-time.Hour),
		PeriodEnd:   testTime.Add(2 * time.Hour),
	}
	summary, err := env.usageSvc.Summarize(ctx, window)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.TotalMessages != 40 {
		t.Fatalf("first customer messages = %d, want 40", summary.TotalMessages)
	}
}

func TestSummarizeHalfOpenWindow(t *testing.T) {
	env := setupUsageTestEnv(t)
	customer := env.createLinkedCustomer(t, "clinic@example.com", "assistant@provider.example")
	ctx := context.Background()

	periodStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	points := []struct {
		at       time.Time
		messages int64
		counted  bool
	}{
		{periodStart.Add(-time.Second), 1, false},
		{periodStart, 10, true},
		{periodStart.Add(15 * 24 * time.Hour), 100, true},
		{periodEnd.Add(-time.Second), 1000, true},
		{periodEnd, 10000, false},
	}
	for _, p := range points {
		if _, err := env.usageSvc.Record(ctx, usagedomain.RecordRequest{
			AccountEmail:  "assistant@provider.example",
			RecordedAt:    p.at,
			MessagesCount: p.messages,
			TokensUsed:    p.messages * 10,
			CostCents:     p.messages * 2,
		}); err != nil {
			t.Fatalf("record at %s: %v", p.at, err)
		}
	}

	summary, err := env.usageSvc.Summarize(ctx, usagedomain.SummarizeRequest{
		CustomerID:  customer.ID.String(),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.TotalMessages != 1110 {
		t.Fatalf("messages = %d, want 1110", summary.TotalMessages)
	}
	if summary.TotalTokens != 11100 {
		t.Fatalf("tokens = %d, want 11100", summary.TotalTokens)
	}
	if summary.TotalCostCents != 2220 {
		t.Fatalf("cost = %d, want 2220", summary.TotalCostCents)
	}
}

func TestSummarizeEmptyPeriodReturnsZeros(t *testing.T) {
	env := setupUsageTestEnv(t)
	customer := env.createLinkedCustomer(t, "clinic@example.com", "assistant@provider.example")

	summary, err := env.usageSvc.Summarize(context.Background(), usagedomain.SummarizeRequest{
		CustomerID:  customer.ID.String(),
		PeriodStart: testTime.Add(24 * time.Hour),
		PeriodEnd:   testTime.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.TotalMessages != 0 || summary.TotalTokens != 0 || summary.TotalCostCents != 0 {
		t.Fatalf("expected zeros, got %+v", summary)
	}
}

func TestSummarizeValidation(t *testing.T) {
	env := setupUsageTestEnv(t)

	if _, err := env.usageSvc.Summarize(context.Background(), usagedomain.SummarizeRequest{
		CustomerID:  "not-an-id",
		PeriodStart: testTime,
		PeriodEnd:   testTime.Add(time.Hour),
	}); !errors.Is(err, usagedomain.ErrInvalidCustomer) {
		t.Fatalf("err = %v, want ErrInvalidCustomer", err)
	}

	if _, err := env.usageSvc.Summarize(context.Background(), usagedomain.SummarizeRequest{
		CustomerID: "999999999999",
	}); !errors.Is(err, usagedomain.ErrInvalidPeriod) {
		t.Fatalf("err = %v, want ErrInvalidPeriod", err)
	}
}

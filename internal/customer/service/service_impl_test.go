package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resailhq/resail/internal/clock"
	customerdomain "github.com/resailhq/resail/internal/customer/domain"
	plandomain "github.com/resailhq/resail/internal/plan/domain"
	planservice "github.com/resailhq/resail/internal/plan/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupCustomerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:customer_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&plandomain.Plan{}, &customerdomain.Customer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newCustomerTestService(t *testing.T, db *gorm.DB) customerdomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	seedPlan := plandomain.Plan{
		ID:             node.Generate(),
		Code:           "plus",
		Name:           "Plus",
		UnitPriceCents: 3000,
		TaxRatePercent: 10,
	}
	if err := db.Create(&seedPlan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	planSvc, err := planservice.NewService(planservice.ServiceParam{DB: db, Log: zap.NewNop()})
	if err != nil {
		t.Fatalf("plan service: %v", err)
	}

	return NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.FixedClock{At: testTime},
		PlanSvc: planSvc,
	})
}

func createTestCustomer(t *testing.T, svc customerdomain.Service, confirmed bool) *customerdomain.Customer {
	t.Helper()
	record, err := svc.Create(context.Background(), customerdomain.CreateCustomerRequest{
		Organization:     "Sakura Clinic",
		Name:             "Dr. Tanaka",
		Email:            "tanaka@sakura-clinic.example",
		PlanCode:         "plus",
		BillingCycle:     "monthly",
		PaymentMethod:    "card",
		PaymentConfirmed: confirmed,
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return record
}

func TestCreateDefaultsToTrial(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)

	record := createTestCustomer(t, svc, false)
	if record.Status != customerdomain.StatusTrial {
		t.Fatalf("status = %s, want trial", record.Status)
	}
	if record.LastActivityAt.Before(record.CreatedAt) {
		t.Fatal("last_activity_at precedes created_at")
	}
}

func TestCreateConfirmedPaymentStartsActive(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)

	record := createTestCustomer(t, svc, true)
	if record.Status != customerdomain.StatusActive {
		t.Fatalf("status = %s, want active", record.Status)
	}
}

func TestCreateValidation(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)

	base := customerdomain.CreateCustomerRequest{
		Organization:  "Sakura Clinic",
		Name:          "Dr. Tanaka",
		Email:         "tanaka@sakura-clinic.example",
		PlanCode:      "plus",
		BillingCycle:  "monthly",
		PaymentMethod: "card",
	}

	tests := []struct {
		name   string
		mutate func(*customerdomain.CreateCustomerRequest)
		want   error
	}{
		{"missing organization", func(r *customerdomain.CreateCustomerRequest) { r.Organization = " " }, customerdomain.ErrInvalidOrganization},
		{"missing name", func(r *customerdomain.CreateCustomerRequest) { r.Name = "" }, customerdomain.ErrInvalidName},
		{"bad email", func(r *customerdomain.CreateCustomerRequest) { r.Email = "not-an-email" }, customerdomain.ErrInvalidEmail},
		{"unknown plan", func(r *customerdomain.CreateCustomerRequest) { r.PlanCode = "enterprise" }, customerdomain.ErrInvalidPlan},
		{"bad cycle", func(r *customerdomain.CreateCustomerRequest) { r.BillingCycle = "weekly" }, customerdomain.ErrInvalidBillingCycle},
		{"bad payment method", func(r *customerdomain.CreateCustomerRequest) { r.PaymentMethod = "crypto" }, customerdomain.ErrInvalidPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransitionTrialToActive(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)
	record := createTestCustomer(t, svc, false)

	updated, err := svc.Transition(context.Background(), customerdomain.TransitionRequest{
		ID:     record.ID.String(),
		Target: "active",
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != customerdomain.StatusActive {
		t.Fatalf("status = %s, want active", updated.Status)
	}

	stored, err := svc.GetByID(context.Background(), customerdomain.GetCustomerRequest{ID: record.ID.String()})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != customerdomain.StatusActive {
		t.Fatalf("stored status = %s, want active", stored.Status)
	}
}

func TestTransitionRejectsTrialToSuspended(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)
	record := createTestCustomer(t, svc, false)

	_, err := svc.Transition(context.Background(), customerdomain.TransitionRequest{
		ID:     record.ID.String(),
		Target: "suspended",
	})
	if !errors.Is(err, customerdomain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}

	var detailed *customerdomain.InvalidTransitionError
	if !errors.As(err, &detailed) {
		t.Fatalf("err = %T, want *InvalidTransitionError", err)
	}
	if detailed.From != customerdomain.StatusTrial || detailed.To != customerdomain.StatusSuspended {
		t.Fatalf("unexpected detail: %+v", detailed)
	}
}

func TestSuspendReactivateCancelFlow(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)
	record := createTestCustomer(t, svc, true)

	ctx := context.Background()
	for _, target := range []string{"suspended", "active", "cancelled"} {
		if _, err := svc.Transition(ctx, customerdomain.TransitionRequest{
			ID:     record.ID.String(),
			Target: target,
		}); err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
	}

	// cancelled is terminal.
	for _, target := range []string{"trial", "active", "suspended"} {
		_, err := svc.Transition(ctx, customerdomain.TransitionRequest{
			ID:     record.ID.String(),
			Target: target,
		})
		if !errors.Is(err, customerdomain.ErrInvalidTransition) {
			t.Fatalf("cancelled -> %s: err = %v, want invalid transition", target, err)
		}
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)
	record := createTestCustomer(t, svc, false)

	_, err := svc.Transition(context.Background(), customerdomain.TransitionRequest{
		ID:     record.ID.String(),
		Target: "deleted",
	})
	if !errors.Is(err, customerdomain.ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestTransitionUnknownCustomer(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)

	_, err := svc.Transition(context.Background(), customerdomain.TransitionRequest{
		ID:     "999999999999",
		Target: "active",
	})
	if !errors.Is(err, customerdomain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)

	createTestCustomer(t, svc, false)
	active := createTestCustomer(t, svc, true)

	resp, err := svc.List(context.Background(), customerdomain.ListCustomerRequest{Status: "active"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Customers) != 1 {
		t.Fatalf("got %d customers, want 1", len(resp.Customers))
	}
	if resp.Customers[0].ID != active.ID {
		t.Fatalf("got %s, want %s", resp.Customers[0].ID, active.ID)
	}
}

func TestRecordActivity(t *testing.T) {
	db := setupCustomerTestDB(t)
	svc := newCustomerTestService(t, db)
	record := createTestCustomer(t, svc, false)

	later := testTime.Add(2 * time.Hour)
	if err := svc.RecordActivity(context.Background(), record.ID, later); err != nil {
		t.Fatalf("record activity: %v", err)
	}

	stored, err := svc.GetByID(context.Background(), customerdomain.GetCustomerRequest{ID: record.ID.String()})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.LastActivityAt.Equal(later) {
		t.Fatalf("last_activity_at = %s, want %s", stored.LastActivityAt, later)
	}
}

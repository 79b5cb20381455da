package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/resailhq/resail/internal/audit/domain"
	auditrepo "github.com/resailhq/resail/internal/audit/repository"
	"github.com/resailhq/resail/internal/auditcontext"
	"github.com/resailhq/resail/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newAuditTestService(t *testing.T) auditdomain.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:audit_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&auditdomain.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.FixedClock{At: testTime},
		Repo:  auditrepo.Provide(),
	})
}

func TestAuditLogRecordsActorFromContext(t *testing.T) {
	svc := newAuditTestService(t)
	ctx := auditcontext.WithActor(context.Background(), "user", "ops@clinic.example")
	ctx = auditcontext.WithRequestID(ctx, "req-7")

	targetID := "123"
	if err := svc.AuditLog(ctx, "account.link", "account_link", &targetID, map[string]any{"email": "a@provider.example"}); err != nil {
		t.Fatalf("audit log: %v", err)
	}

	entries, err := svc.List(context.Background(), auditdomain.ListFilter{Action: "account.link"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.ActorType != "user" || entry.ActorID == nil || *entry.ActorID != "ops@clinic.example" {
		t.Fatalf("actor = %s/%v", entry.ActorType, entry.ActorID)
	}
	if entry.TargetID == nil || *entry.TargetID != "123" {
		t.Fatalf("target id = %v, want 123", entry.TargetID)
	}
	if entry.Metadata["email"] != "a@provider.example" {
		t.Fatalf("metadata email = %v", entry.Metadata["email"])
	}
	if entry.Metadata["request_id"] != "req-7" {
		t.Fatalf("metadata request_id = %v", entry.Metadata["request_id"])
	}
	if !entry.CreatedAt.Equal(testTime) {
		t.Fatalf("created_at = %v, want %v", entry.CreatedAt, testTime)
	}
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc := newAuditTestService(t)

	if err := svc.AuditLog(context.Background(), "customer.transition", "customer", nil, nil); err != nil {
		t.Fatalf("audit log: %v", err)
	}

	entries, err := svc.List(context.Background(), auditdomain.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].ActorType != string(auditdomain.ActorTypeSystem) {
		t.Fatalf("entries = %+v, want one system entry", entries)
	}
}

func TestAuditLogRejectsBlankAction(t *testing.T) {
	svc := newAuditTestService(t)

	if err := svc.AuditLog(context.Background(), "  ", "customer", nil, nil); err == nil {
		t.Fatal("blank action should be rejected")
	}
	if err := svc.AuditLog(context.Background(), "customer.create", "", nil, nil); err == nil {
		t.Fatal("blank target type should be rejected")
	}
}

func TestListFilters(t *testing.T) {
	svc := newAuditTestService(t)
	ctx := context.Background()

	for _, action := range []string{"account.link", "account.unlink", "customer.create"} {
		if err := svc.AuditLog(ctx, action, "customer", nil, nil); err != nil {
			t.Fatalf("audit log %s: %v", action, err)
		}
	}

	entries, err := svc.List(ctx, auditdomain.ListFilter{Action: "account.unlink"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "account.unlink" {
		t.Fatalf("filtered entries = %+v", entries)
	}

	entries, err = svc.List(ctx, auditdomain.ListFilter{ActorType: "user"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no user entries, got %d", len(entries))
	}
}

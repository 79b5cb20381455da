package logger

import (
	"context"
	"testing"

	"github.com/resailhq/resail/internal/auditcontext"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })
	return logs
}

func TestFromContextIncludesTrace(t *testing.T) {
	logs := captureLogs(t)

	traceID, _ := trace.TraceIDFromHex("1f2e3d4c5b6a79880102030405060708")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	FromContext(ctx).Info("usage recorded")
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != traceID.String() {
		t.Fatalf("expected trace_id %q, got %q", traceID.String(), fields["trace_id"])
	}
	if fields["span_id"] != spanID.String() {
		t.Fatalf("expected span_id %q, got %q", spanID.String(), fields["span_id"])
	}
}

func TestFromContextIncludesRequestID(t *testing.T) {
	logs := captureLogs(t)

	ctx := auditcontext.WithRequestID(context.Background(), "req-42")
	FromContext(ctx).Info("customer created")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-42" {
		t.Fatalf("expected request_id req-42, got %v", got)
	}
}

func TestFromContextWithoutEnrichment(t *testing.T) {
	logs := captureLogs(t)

	FromContext(context.Background()).Info("plain")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if len(entries[0].Context) != 0 {
		t.Fatalf("expected no enrichment fields, got %v", entries[0].ContextMap())
	}
}

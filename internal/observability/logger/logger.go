// Package logger provides the zap logger, context enrichment, and masking.
package logger

import (
	"context"

	"github.com/resailhq/resail/internal/auditcontext"
	"github.com/resailhq/resail/internal/config"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger builds the process logger. Development mode uses console output.
func NewLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// FromContext returns the global logger enriched with trace and request
// identifiers found in the context.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if ctx == nil {
		return log
	}

	fields := make([]zap.Field, 0, 3)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if requestID := auditcontext.RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

var Module = fx.Module("logger",
	fx.Provide(func(cfg config.Config) (*zap.Logger, error) {
		log, err := NewLogger(cfg.IsProduction())
		if err != nil {
			return nil, err
		}
		zap.ReplaceGlobals(log)
		return log, nil
	}),
)

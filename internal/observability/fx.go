// Package observability wires tracing and metrics providers into the app.
package observability

import (
	"github.com/resailhq/resail/internal/config"
	"github.com/resailhq/resail/internal/observability/metrics"
	"github.com/resailhq/resail/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Telemetry.Enabled,
			ServiceName:      cfg.Telemetry.ServiceName,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Telemetry.Endpoint,
		}
	}),
	fx.Provide(tracing.NewProvider),
	fx.Provide(func(cfg config.Config) metrics.ProviderConfig {
		return metrics.ProviderConfig{
			Enabled:          cfg.Telemetry.Enabled,
			ServiceName:      cfg.Telemetry.ServiceName,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Telemetry.Endpoint,
		}
	}),
	fx.Provide(metrics.NewProvider),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{ServiceName: cfg.Telemetry.ServiceName}
	}),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(metrics.NewDomainMetrics),
)

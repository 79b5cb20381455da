package metrics

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DomainMetrics counts business-level events for billing visibility.
type DomainMetrics struct {
	customerTransitions metric.Int64Counter
	linksCreated        metric.Int64Counter
	linksRemoved        metric.Int64Counter
	usageRecorded       metric.Int64Counter
}

// NewDomainMetrics creates the domain counters.
func NewDomainMetrics(cfg Config, provider metric.MeterProvider) (*DomainMetrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "resail"
	}
	meter := provider.Meter(name + "/domain")

	customerTransitions, err := meter.Int64Counter("customer.transitions")
	if err != nil {
		return nil, err
	}
	linksCreated, err := meter.Int64Counter("accountlink.created")
	if err != nil {
		return nil, err
	}
	linksRemoved, err := meter.Int64Counter("accountlink.removed")
	if err != nil {
		return nil, err
	}
	usageRecorded, err := meter.Int64Counter("usage.recorded")
	if err != nil {
		return nil, err
	}

	return &DomainMetrics{
		customerTransitions: customerTransitions,
		linksCreated:        linksCreated,
		linksRemoved:        linksRemoved,
		usageRecorded:       usageRecorded,
	}, nil
}

// IncTransition counts a successful lifecycle transition.
func (m *DomainMetrics) IncTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.customerTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// IncLinkCreated counts a new account link.
func (m *DomainMetrics) IncLinkCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.linksCreated.Add(ctx, 1)
}

// IncLinkRemoved counts a deactivated account link.
func (m *DomainMetrics) IncLinkRemoved(ctx context.Context) {
	if m == nil {
		return
	}
	m.linksRemoved.Add(ctx, 1)
}

// IncUsageRecorded counts an ingested usage record.
func (m *DomainMetrics) IncUsageRecorded(ctx context.Context) {
	if m == nil {
		return
	}
	m.usageRecorded.Add(ctx, 1)
}

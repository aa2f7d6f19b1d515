// Package telemetry bundles the observability backends shared by the
// scaling components.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/giobyte8/imagescaler/internal/telemetry/metrics"
)

type TelemetrySvc struct {
	metrics metrics.MetricsSvc
}

// NewTelemetrySvc exports metrics through OTLP when 'otelEnabled' is
// set and discards them otherwise.
func NewTelemetrySvc(
	ctx context.Context,
	otelEnabled bool,
) (*TelemetrySvc, error) {
	if !otelEnabled {
		slog.Debug("OTEL disabled, metrics will be discarded")
		return NewNoopTelemetrySvc(), nil
	}

	metricsSvc, err := metrics.NewOtelMetricsSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init otel metrics: %w", err)
	}

	return WithMetrics(metricsSvc), nil
}

// WithMetrics wraps an already built metrics backend.
func WithMetrics(m metrics.MetricsSvc) *TelemetrySvc {
	return &TelemetrySvc{metrics: m}
}

// NewNoopTelemetrySvc returns a telemetry service that records nothing.
func NewNoopTelemetrySvc() *TelemetrySvc {
	return WithMetrics(metrics.NewNoopMetricsSvc())
}

// Metrics never returns nil, a nil service behaves as a noop one.
func (t *TelemetrySvc) Metrics() metrics.MetricsSvc {
	if t == nil || t.metrics == nil {
		return metrics.NewNoopMetricsSvc()
	}

	return t.metrics
}

func (t *TelemetrySvc) Shutdown(ctx context.Context) error {
	return t.Metrics().Shutdown(ctx)
}

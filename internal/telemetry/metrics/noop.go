package metrics

import (
	"context"
)

var (
	_ MetricsSvc = (*NoopMetricsSvc)(nil)
	_ MetricsSvc = (*OtelMetricsSvc)(nil)
)

// NoopMetricsSvc discards every measurement, used when OTEL_ENABLED
// is not set and in tests.
type NoopMetricsSvc struct{}

func NewNoopMetricsSvc() *NoopMetricsSvc {
	return &NoopMetricsSvc{}
}

func (n *NoopMetricsSvc) Increment(
	metric MetricName,
	attrs map[string]string) {
	// No operation performed
}

func (n *NoopMetricsSvc) Shutdown(ctx context.Context) error {
	return nil
}

package metrics

import (
	"context"
)

// Custom type to represent a metric name,
// providing a type-safe way to handle metric names.
type MetricName string

const (
	BatchRequestReceived MetricName = "imagescaler.batch.request.received"
	BatchStarted         MetricName = "imagescaler.batch.started"
	ImageCompleted       MetricName = "imagescaler.image.completed"
	VariantCreated       MetricName = "imagescaler.variant.created"
	VariantFailed        MetricName = "imagescaler.variant.failed"
)

type MetricsSvc interface {
	Increment(metric MetricName, attrs map[string]string)
	Shutdown(ctx context.Context) error
}

package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Text store operations.
const (
	OperationSave  = "save"
	OperationFetch = "fetch"
)

// payloadSizeBuckets span one padded block up to the largest envelope, about
// 5.3M characters.
var payloadSizeBuckets = []float64{
	1 << 10, 8 << 10, 64 << 10, 256 << 10, 1 << 20, 2 << 20, 4 << 20, 6 << 20,
}

// BusinessMetrics records text store operations.
type BusinessMetrics interface {
	// RecordOperation counts one save or fetch and observes its duration.
	// Status is one of the Status constants, usually from StatusOf.
	RecordOperation(ctx context.Context, operation, status string, duration time.Duration)

	// RecordPayloadSize observes the length in characters of a payload that
	// was stored or returned.
	RecordPayloadSize(ctx context.Context, operation string, chars int)
}

type businessMetrics struct {
	operations  metric.Int64Counter
	duration    metric.Float64Histogram
	payloadSize metric.Int64Histogram
}

// NewBusinessMetrics creates the text store instruments, named with the
// namespace prefix (e.g. "textdrop_text_operations_total").
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_text_operations_total", namespace),
		metric.WithDescription("Total number of text save and fetch operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		fmt.Sprintf("%s_text_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of text save and fetch operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	payloadSize, err := meter.Int64Histogram(
		fmt.Sprintf("%s_text_payload_chars", namespace),
		metric.WithDescription("Length of stored and fetched payloads in characters"),
		metric.WithUnit("{char}"),
		metric.WithExplicitBucketBoundaries(payloadSizeBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload size histogram: %w", err)
	}

	return &businessMetrics{
		operations:  operations,
		duration:    duration,
		payloadSize: payloadSize,
	}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	b.operations.Add(ctx, 1, attrs)
	b.duration.Record(ctx, duration.Seconds(), attrs)
}

func (b *businessMetrics) RecordPayloadSize(ctx context.Context, operation string, chars int) {
	b.payloadSize.Record(ctx, int64(chars), metric.WithAttributes(attribute.String("operation", operation)))
}

// NoOpBusinessMetrics discards everything. Used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, time.Duration) {}

func (n *NoOpBusinessMetrics) RecordPayloadSize(context.Context, string, int) {}

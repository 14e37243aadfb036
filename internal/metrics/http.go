package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests that hit no route, so scanners probing
// random paths do not create new series.
const unmatchedRoute = "unmatched"

// requestSizeBuckets span an empty fetch body up to the request body cap.
var requestSizeBuckets = []float64{
	256, 4 << 10, 64 << 10, 512 << 10, 2 << 20, 8 << 20,
}

type httpMetrics struct {
	requests    metric.Int64Counter
	duration    metric.Float64Histogram
	requestSize metric.Int64Histogram
}

// HTTPMetricsMiddleware records request count, duration and body size per
// method, route and status code.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) (gin.HandlerFunc, error) {
	meter := meterProvider.Meter(namespace)

	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	requestSize, err := meter.Int64Histogram(
		fmt.Sprintf("%s_http_request_body_bytes", namespace),
		metric.WithDescription("Declared HTTP request body size in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(requestSizeBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request size histogram: %w", err)
	}

	m := &httpMetrics{requests: requests, duration: duration, requestSize: requestSize}
	return m.handle, nil
}

func (m *httpMetrics) handle(c *gin.Context) {
	start := time.Now()
	c.Next()

	ctx := c.Request.Context()
	attrs := metric.WithAttributes(
		attribute.String("method", c.Request.Method),
		attribute.String("route", routeOf(c.FullPath())),
		attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
	)

	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	if c.Request.ContentLength >= 0 {
		m.requestSize.Record(ctx, c.Request.ContentLength, attrs)
	}
}

// routeOf returns the matched route pattern, never the raw URL.
func routeOf(fullPath string) string {
	if fullPath == "" {
		return unmatchedRoute
	}
	return fullPath
}

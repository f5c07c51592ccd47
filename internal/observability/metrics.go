package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig configures the HTTP metrics collector.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// MetricsCollector records HTTP server metrics through an OpenTelemetry
// meter whose readings are exported into a Prometheus registry.
type MetricsCollector struct {
	provider *sdkmetric.MeterProvider

	httpRequests metric.Int64Counter
	httpLatency  metric.Float64Histogram
}

// NewMetricsCollector wires an OpenTelemetry meter to reg. A disabled
// config yields a collector backed by a no-op meter.
func NewMetricsCollector(config MetricsConfig, reg promclient.Registerer) (*MetricsCollector, error) {
	if !config.Enabled {
		return newCollector(noop.NewMeterProvider().Meter("soullab"), nil)
	}
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return newCollector(provider.Meter("soullab"), provider)
}

func newCollector(meter metric.Meter, provider *sdkmetric.MeterProvider) (*MetricsCollector, error) {
	httpRequests, err := meter.Int64Counter(
		"soullab.http.requests",
		metric.WithDescription("HTTP requests served, by route, method and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests counter: %w", err)
	}

	httpLatency, err := meter.Float64Histogram(
		"soullab.http.request",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request histogram: %w", err)
	}

	return &MetricsCollector{
		provider:     provider,
		httpRequests: httpRequests,
		httpLatency:  httpLatency,
	}, nil
}

// RecordHTTPServerRequest records one served request.
func (m *MetricsCollector) RecordHTTPServerRequest(ctx context.Context, route, method string, status int, latency time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
		attribute.String("status", strconv.Itoa(status)),
	))
	m.httpLatency.Record(ctx, latency.Seconds(), metric.WithAttributes(attribute.String("route", route)))
}

// Shutdown flushes and stops the meter provider.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

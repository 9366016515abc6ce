package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMode      = "mode"
	attrOperation = "operation"
	attrResult    = "result"
)

// Result values for metric attributes.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics provides methods for recording observability metrics.
// All methods are safe on a nil or zero-value receiver, which acts as a
// no-op recorder.
type Metrics struct {
	authFlowsTotal       metric.Int64Counter
	tokenRefreshesTotal  metric.Int64Counter
	apiOperationsTotal   metric.Int64Counter
	apiOperationDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.authFlowsTotal, err = meter.Int64Counter(
		"oauth_auth_flows_total",
		metric.WithDescription("Total number of interactive authorization flows"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_flows_total counter: %w", err)
	}

	m.tokenRefreshesTotal, err = meter.Int64Counter(
		"oauth_token_refreshes_total",
		metric.WithDescription("Total number of access token refresh attempts"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refreshes_total counter: %w", err)
	}

	m.apiOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.apiOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordAuthFlow records the outcome of an interactive authorization
// flow. Mode is "loopback" or "console".
func (m *Metrics) RecordAuthFlow(ctx context.Context, mode, result string) {
	if m == nil || m.authFlowsTotal == nil {
		return
	}
	m.authFlowsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMode, mode),
		attribute.String(attrResult, result),
	))
}

// RecordTokenRefresh records the outcome of a token refresh attempt.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshesTotal == nil {
		return
	}
	m.tokenRefreshesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordAPIOperation records a Gmail API call with its duration.
func (m *Metrics) RecordAPIOperation(ctx context.Context, operation, result string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrResult, result),
	)
	if m.apiOperationsTotal != nil {
		m.apiOperationsTotal.Add(ctx, 1, attrs)
	}
	if m.apiOperationDuration != nil {
		m.apiOperationDuration.Record(ctx, seconds, attrs)
	}
}

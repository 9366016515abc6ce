package instrumentation

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNilMetricsAreNoOp(t *testing.T) {
	ctx := context.Background()

	var m *Metrics
	m.RecordAuthFlow(ctx, "loopback", ResultSuccess)
	m.RecordTokenRefresh(ctx, ResultError)
	m.RecordAPIOperation(ctx, "send_message", ResultSuccess, 0.1)

	zero := &Metrics{}
	zero.RecordAuthFlow(ctx, "console", ResultError)
	zero.RecordTokenRefresh(ctx, ResultSuccess)
	zero.RecordAPIOperation(ctx, "get_message", ResultError, 0.5)
}

func TestNewMetrics(t *testing.T) {
	meter := sdkmetric.NewMeterProvider().Meter("test")
	m, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	if m.authFlowsTotal == nil || m.tokenRefreshesTotal == nil ||
		m.apiOperationsTotal == nil || m.apiOperationDuration == nil {
		t.Error("NewMetrics() should initialize all instruments")
	}

	// Recording must not panic on a fully initialized recorder.
	ctx := context.Background()
	m.RecordAuthFlow(ctx, "loopback", ResultSuccess)
	m.RecordTokenRefresh(ctx, ResultSuccess)
	m.RecordAPIOperation(ctx, "list_messages", ResultSuccess, 0.05)
}

func TestDisabledProviderHandsOutNoOpRecorder(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Enabled() {
		t.Error("provider should be disabled")
	}
	if p.Metrics() == nil {
		t.Error("disabled provider must still hand out a recorder")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("1.2.3")
	if cfg.ServiceName != "gmailkit" {
		t.Errorf("ServiceName = %v, want gmailkit", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "1.2.3" {
		t.Errorf("ServiceVersion = %v, want 1.2.3", cfg.ServiceVersion)
	}
	if cfg.MetricsExporter != ExporterPrometheus {
		t.Errorf("MetricsExporter = %v, want prometheus", cfg.MetricsExporter)
	}
}

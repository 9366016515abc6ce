package instrumentation

import "os"

// Exporter types for metrics.
const (
	ExporterPrometheus = "prometheus"
	ExporterStdout     = "stdout"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: gmailkit)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Enabled determines if instrumentation is active.
	// Set GMAILKIT_INSTRUMENTATION_ENABLED=false to disable.
	Enabled bool

	// MetricsExporter specifies the metrics exporter type.
	// Options: "prometheus", "stdout" (default: "prometheus")
	MetricsExporter string
}

// DefaultConfig returns the default instrumentation configuration with
// environment overrides applied.
func DefaultConfig(version string) Config {
	cfg := Config{
		ServiceName:     "gmailkit",
		ServiceVersion:  version,
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
	}
	if v := os.Getenv("GMAILKIT_INSTRUMENTATION_ENABLED"); v == "false" || v == "0" {
		cfg.Enabled = false
	}
	if v := os.Getenv("GMAILKIT_METRICS_EXPORTER"); v != "" {
		cfg.MetricsExporter = v
	}
	return cfg
}

package config

import "time"

// TelemetryConfig controls OpenTelemetry tracing and metrics.
type TelemetryConfig struct {
	Enabled        bool
	Dir            string        // directory for trace and metric export files
	MetricInterval time.Duration // how often metrics are exported
	ServiceVersion string
}

// LoadTelemetryConfig reads OTEL_* variables.  Telemetry is off by default.
func LoadTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        envBool("OTEL_ENABLED", false),
		Dir:            envStr("OTEL_DIR", "logs"),
		MetricInterval: envDur("OTEL_METRIC_INTERVAL", 10*time.Second),
		ServiceVersion: envStr("OTEL_SERVICE_VERSION", "1.0.0"),
	}
}

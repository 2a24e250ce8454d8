package observability

import "time"

// Config configures the telemetry provider bundle (traces + metrics + logs).
type Config struct {
	// OTLPEndpoint is the OTLP gRPC collector address, e.g. "127.0.0.1:4317".
	// All three signals export over one insecure connection to it.
	OTLPEndpoint string
	// ServiceName identifies this process on every emitted signal.
	ServiceName string
	// ServiceVersion is optional, e.g. from build info.
	ServiceVersion string
	// DeploymentEnvironment is the environment tag (development, production).
	DeploymentEnvironment string
	// EnableTracing gates the trace provider. Disabled = noop provider,
	// no exporter, no export traffic.
	EnableTracing bool
	// EnableMetrics gates the meter provider and the system-resource gauges.
	EnableMetrics bool
	// EnableLogging gates the log provider and the zap bridge core.
	EnableLogging bool
	// MetricInterval is the periodic export interval, default 60s.
	MetricInterval time.Duration
	// SamplingRatio is the fraction of traces to sample (0..1), default 1.0.
	SamplingRatio float64
}

func (c Config) withDefaults() Config {
	if c.MetricInterval <= 0 {
		c.MetricInterval = 60 * time.Second
	}
	if c.SamplingRatio <= 0 {
		c.SamplingRatio = 1.0
	}
	return c
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all process-wide settings. It is read once at startup from
// environment variables and never mutated afterwards.
type Config struct {
	// Database connection settings
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"password"`
	DBName     string `env:"DB_NAME" envDefault:"users"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"30"`

	// HTTP server settings
	ServerHost      string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort      int           `env:"SERVER_PORT" envDefault:"8080"`
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry settings. The endpoint is OTLP gRPC (insecure).
	OTelServiceName          string        `env:"OTEL_SERVICE_NAME" envDefault:"otel-example-go"`
	OTelServiceVersion       string        `env:"OTEL_SERVICE_VERSION" envDefault:"1.0.0"`
	OTelEnvironment          string        `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	OTelExporterOTLPEndpoint string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelMetricExportInterval time.Duration `env:"OTEL_METRIC_EXPORT_INTERVAL" envDefault:"60s"`
	OTelEnableTracing        bool          `env:"OTEL_ENABLE_TRACING" envDefault:"true"`
	OTelEnableMetrics        bool          `env:"OTEL_ENABLE_METRICS" envDefault:"true"`
	OTelEnableLogging        bool          `env:"OTEL_ENABLE_LOGGING" envDefault:"true"`
}

// Load reads the configuration from environment variables.
// Every field has a default, so the only error path is a malformed typed
// value (e.g. a non-integer port), which must abort startup.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for values the service cannot
// start with.
func (c Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		return fmt.Errorf("DB_PORT must be in 1..65535, got %d", c.DBPort)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be in 1..65535, got %d", c.ServerPort)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.OTelExporterOTLPEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required")
	}
	if c.OTelMetricExportInterval <= 0 {
		return fmt.Errorf("OTEL_METRIC_EXPORT_INTERVAL must be positive")
	}
	return nil
}

// DSN assembles the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// ServerAddr returns the host:port the HTTP server binds to.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

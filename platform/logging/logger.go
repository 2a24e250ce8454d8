package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes how the process logger is built.
type Config struct {
	// ServiceName is attached to every record as a "service" field.
	ServiceName string
	// Env is the deployment environment (development/production), attached
	// as an "env" field.
	Env string
	// Level is the minimum severity (debug/info/warn/error), default "info".
	Level string
	// Format selects the encoder ("console"|"json"),
	// default: development=console, anything else=json.
	Format string
}

// New builds the process-wide zap logger. The console core always writes to
// stderr; any extra cores (e.g. the OTLP log bridge) are teed in so every
// record reaches both sinks. Repeated calls build a fresh logger, so prior
// cores never leak into the new one.
func New(cfg Config, extra ...zapcore.Core) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		if cfg.Env == "development" {
			cfg.Format = "console"
		} else {
			cfg.Format = "json"
		}
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	console := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)

	core := console
	if len(extra) > 0 {
		cores := append([]zapcore.Core{console}, extra...)
		core = zapcore.NewTee(cores...)
	}

	logger := zap.New(core)
	logger = logger.With(
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Env),
	)

	return logger, nil
}

// ParseLevel converts a level name to a zapcore.Level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", s)
	}
}

// Sync flushes buffered records, ignoring the harmless errors some
// platforms return when syncing stderr.
func Sync(log *zap.Logger) {
	_ = log.Sync()
}

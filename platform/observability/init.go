package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otellog "go.opentelemetry.io/otel/log"
	logglobal "go.opentelemetry.io/otel/log/global"
	nooplog "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// providerShutdownTimeout bounds each provider's flush during Shutdown, so
// an unreachable collector cannot hang process exit.
const providerShutdownTimeout = 10 * time.Second

// Bundle owns the three signal providers. Providers for disabled signals
// are noop, so attach points built from the Bundle silently emit nothing.
// Registration of globals happens only in Init; afterwards the Bundle is
// read-only and safe for concurrent use.
type Bundle struct {
	serviceName    string
	serviceVersion string
	loggingEnabled bool

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	loggerProvider otellog.LoggerProvider

	conn      *grpc.ClientConn
	shutdowns []namedShutdown
}

type namedShutdown struct {
	name string
	fn   func(context.Context) error
}

// Init builds and globally registers the telemetry providers, each gated by
// its own flag. All enabled exporters share one insecure gRPC connection to
// cfg.OTLPEndpoint; the connection dials lazily, so an unreachable collector
// is not a setup error — only a malformed endpoint is. Calling Init twice
// replaces the previous global registration (single-shot startup only).
func Init(ctx context.Context, cfg Config, logger *zap.Logger) (*Bundle, error) {
	cfg = cfg.withDefaults()

	b := &Bundle{
		serviceName:    cfg.ServiceName,
		serviceVersion: cfg.ServiceVersion,
		loggingEnabled: cfg.EnableLogging,
		tracerProvider: nooptrace.NewTracerProvider(),
		meterProvider:  noopmetric.NewMeterProvider(),
		loggerProvider: nooplog.NewLoggerProvider(),
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.EnableTracing && !cfg.EnableMetrics && !cfg.EnableLogging {
		otel.SetTracerProvider(b.tracerProvider)
		otel.SetMeterProvider(b.meterProvider)
		return b, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("deployment.environment", cfg.DeploymentEnvironment),
		),
		resource.WithProcessRuntimeDescription(),
	)
	if err != nil {
		return nil, fmt.Errorf("observability resource: %w", err)
	}
	if cfg.ServiceVersion != "" {
		res, _ = resource.Merge(res, resource.NewWithAttributes("",
			attribute.String("service.version", cfg.ServiceVersion),
		))
	}

	conn, err := grpc.NewClient(cfg.OTLPEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("otlp grpc client: %w", err)
	}
	b.conn = conn

	if cfg.EnableTracing {
		traceExp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			b.abort(ctx)
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(traceExp),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRatio))),
		)
		otel.SetTracerProvider(tp)
		b.tracerProvider = tp
		b.shutdowns = append(b.shutdowns, namedShutdown{"tracer_provider", tp.Shutdown})
		logger.Info("OpenTelemetry tracing initialized", zap.String("endpoint", cfg.OTLPEndpoint))
	} else {
		otel.SetTracerProvider(b.tracerProvider)
	}

	if cfg.EnableMetrics {
		metricExp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			b.abort(ctx)
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp,
				sdkmetric.WithInterval(cfg.MetricInterval))),
		)
		otel.SetMeterProvider(mp)
		b.meterProvider = mp
		b.shutdowns = append(b.shutdowns, namedShutdown{"meter_provider", mp.Shutdown})

		if err := registerSystemMetrics(mp.Meter("system.metrics")); err != nil {
			logger.Warn("System metrics registration failed", zap.Error(err))
		}
		logger.Info("OpenTelemetry metrics initialized with system instrumentation",
			zap.String("endpoint", cfg.OTLPEndpoint),
			zap.Duration("interval", cfg.MetricInterval))
	} else {
		otel.SetMeterProvider(b.meterProvider)
	}

	if cfg.EnableLogging {
		logExp, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
		if err != nil {
			b.abort(ctx)
			return nil, fmt.Errorf("otlp log exporter: %w", err)
		}
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		)
		logglobal.SetLoggerProvider(lp)
		b.loggerProvider = lp
		b.shutdowns = append(b.shutdowns, namedShutdown{"logger_provider", lp.Shutdown})
		logger.Info("OpenTelemetry logging initialized", zap.String("endpoint", cfg.OTLPEndpoint))
	}

	return b, nil
}

// Tracer returns the bundle's tracer (noop when tracing is disabled).
func (b *Bundle) Tracer() trace.Tracer {
	return b.tracerProvider.Tracer(b.serviceName)
}

// Meter returns the bundle's meter (noop when metrics are disabled).
func (b *Bundle) Meter() metric.Meter {
	return b.meterProvider.Meter(b.serviceName)
}

// ZapCore returns a zapcore.Core bridging log records into the OTLP log
// pipeline. The second return is false when the logging signal is disabled;
// console logging is independent of it and always stays on.
func (b *Bundle) ZapCore() (zapcore.Core, bool) {
	if !b.loggingEnabled {
		return nil, false
	}
	return otelzap.NewCore(b.serviceName, otelzap.WithLoggerProvider(b.loggerProvider)), true
}

// Shutdown flushes and closes every constructed provider, each under its
// own bounded timeout. Providers shut down independently: a failing one is
// reported in the joined error but never prevents the others from being
// attempted. Pending batches are exported best-effort.
func (b *Bundle) Shutdown(ctx context.Context) error {
	var errs []error
	for _, s := range b.shutdowns {
		sctx, cancel := context.WithTimeout(ctx, providerShutdownTimeout)
		if err := s.fn(sctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
		cancel()
	}
	b.shutdowns = nil
	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("otlp conn: %w", err))
		}
		b.conn = nil
	}
	return errors.Join(errs...)
}

// abort tears down whatever Init managed to construct before failing.
func (b *Bundle) abort(ctx context.Context) {
	_ = b.Shutdown(ctx)
}

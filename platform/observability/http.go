package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// httpHeaderCarrier adapts http.Header to propagation.TextMapCarrier.
type httpHeaderCarrier struct {
	header http.Header
}

func (c httpHeaderCarrier) Get(key string) string {
	return c.header.Get(key)
}

func (c httpHeaderCarrier) Set(key, value string) {
	c.header.Set(key, value)
}

func (c httpHeaderCarrier) Keys() []string {
	out := make([]string, 0, len(c.header))
	for k := range c.header {
		out = append(out, k)
	}
	return out
}

// HTTPMiddleware wraps the HTTP entry layer: every inbound request gets a
// server span (continuing any trace context carried in the headers), a
// request id, a trace-correlated logger in the request context, and request
// count/duration metrics. Handlers stay unaware of the tracing API.
//
// Access lines are logged at Debug so the default console level suppresses
// per-request noise; 5xx responses and panics are logged at Error.
func (b *Bundle) HTTPMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	tracer := b.Tracer()
	prop := otel.GetTextMapPropagator()

	meter := b.Meter()
	requests, _ := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of handled HTTP requests"),
		metric.WithUnit("{request}"))
	duration, _ := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := prop.Extract(r.Context(), httpHeaderCarrier{r.Header})
			route := r.URL.Path

			spanName := "HTTP " + r.Method + " " + route
			ctx, span := tracer.Start(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
					attribute.String("http.route", route),
				),
			)
			defer span.End()

			requestID := uuid.NewString()
			w.Header().Set("X-Request-ID", requestID)
			span.SetAttributes(attribute.String("http.request_id", requestID))

			reqLogger := L(ctx, logger).With(zap.String("request_id", requestID))
			ctx = withLogger(ctx, reqLogger)

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					span.RecordError(err)
					span.SetStatus(codes.Error, "panic")
					reqLogger.Error("Request handler panicked",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("panic", rec))
					if !wrapped.wroteHeader {
						http.Error(wrapped, "Internal server error", http.StatusInternalServerError)
					}
				}

				statusCode := wrapped.statusCode
				elapsed := time.Since(start)

				span.SetAttributes(attribute.Int("http.status_code", statusCode))
				if statusCode >= 400 {
					span.SetStatus(codes.Error, strconv.Itoa(statusCode))
				}

				attrs := metric.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", route),
					attribute.Int("http.status_code", statusCode),
				)
				requests.Add(ctx, 1, attrs)
				duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)

				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", statusCode),
					zap.Duration("duration", elapsed),
				}
				if statusCode >= 500 {
					reqLogger.Error("Request failed", fields...)
				} else {
					reqLogger.Debug("Request completed", fields...)
				}
			}()

			next.ServeHTTP(wrapped, r.WithContext(ctx))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(p)
}

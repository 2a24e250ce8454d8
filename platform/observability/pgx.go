package observability

import (
	"context"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PgxTracer instruments the data-access layer through pgx's tracer hooks.
// Every query becomes a client span, child of whatever span is active in
// the calling context (or a new root if none). Only the statement text is
// recorded, never argument values, so parameters cannot leak into spans.
// Connection establishment gets its own span.
type PgxTracer struct {
	tracer trace.Tracer
}

// PgxTracer returns a tracer to install on the pool's conn config before
// the pool is built. Repository code calls no tracing API itself.
func (b *Bundle) PgxTracer() *PgxTracer {
	return &PgxTracer{tracer: b.Tracer()}
}

var (
	_ pgx.QueryTracer   = (*PgxTracer)(nil)
	_ pgx.ConnectTracer = (*PgxTracer)(nil)
)

// TraceQueryStart starts a span for an outgoing query.
func (t *PgxTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", data.SQL),
		attribute.String("db.operation", sqlOperation(data.SQL)),
	}
	if conn != nil {
		cfg := conn.Config()
		attrs = append(attrs,
			attribute.String("db.name", cfg.Database),
			attribute.String("server.address", cfg.Host),
		)
	}
	ctx, _ = t.tracer.Start(ctx, "DB "+sqlOperation(data.SQL),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx
}

// TraceQueryEnd ends the query span, recording the error status if any.
func (t *PgxTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	}
	span.End()
}

// TraceConnectStart starts a span for establishing a new connection.
func (t *PgxTracer) TraceConnectStart(ctx context.Context, data pgx.TraceConnectStartData) context.Context {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
	}
	if data.ConnConfig != nil {
		attrs = append(attrs, attribute.String("server.address", data.ConnConfig.Host))
	}
	ctx, _ = t.tracer.Start(ctx, "DB connect",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx
}

// TraceConnectEnd ends the connect span.
func (t *PgxTracer) TraceConnectEnd(ctx context.Context, data pgx.TraceConnectEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	}
	span.End()
}

// sqlOperation extracts the leading SQL verb (SELECT, INSERT, ...) for span
// naming. Unknown or empty statements map to "QUERY".
func sqlOperation(sql string) string {
	sql = strings.TrimSpace(sql)
	end := len(sql)
	for i, r := range sql {
		if unicode.IsSpace(r) {
			end = i
			break
		}
	}
	if end == 0 {
		return "QUERY"
	}
	return strings.ToUpper(sql[:end])
}

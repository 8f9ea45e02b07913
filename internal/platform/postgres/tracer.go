// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/taibuivan/storybook/internal/platform/postgres"

// queryTracer emits one client span per query on the global tracer provider.
type queryTracer struct {
	tracer   trace.Tracer
	database string
}

func newQueryTracer(database string) *queryTracer {
	return &queryTracer{tracer: otel.Tracer(tracerName), database: database}
}

// TraceQueryStart implements [pgx.QueryTracer].
func (tracer *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, _ = tracer.tracer.Start(ctx, spanName(data.SQL),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.name", tracer.database),
			attribute.String("db.statement", data.SQL),
		),
	)
	return ctx
}

// TraceQueryEnd implements [pgx.QueryTracer].
func (tracer *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
}

// spanName is the leading SQL keyword, such as "SELECT" or "UPDATE".
func spanName(sql string) string {
	keyword, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	if keyword == "" {
		return "postgres.query"
	}
	return "postgres." + strings.ToUpper(keyword)
}

// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the pipeline and transformer spans and metrics.
const (
	RunIDKey      = attribute.Key("tabprep.run_id")
	ColumnTypeKey = attribute.Key("tabprep.column_type")
)

// StartSpan starts a span with the tracer on input. A nil tracer returns the
// input context and a nil span.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, nil
	}
	return tracer.Start(ctx, name, opts...)
}

// CloseSpan records the error, if any, and ends the span. Noop for a nil
// span.
func CloseSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Package tracing wraps OpenTelemetry spans around units of work.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans produced by this service.
const InstrumentationName = "github.com/target/courtlist-publisher"

// Attribute keys shared across spans.
const (
	AttrCourtListID   = attribute.Key("court_list_id")
	AttrCourtCentreID = attribute.Key("court_centre_id")
	AttrCourtListType = attribute.Key("court_list_type")
	AttrBranch        = attribute.Key("branch")
	AttrJobID         = attribute.Key("job_id")
)

// Tracer returns the service tracer from the global provider.
// The global provider is a no-op until an SDK provider is installed.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Run executes fn inside a span named name. A returned error is recorded on the span
// and sets its status; a nil tracer falls back to Tracer().
func Run(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	fn func(ctx context.Context, span trace.Span) error,
	attrs ...attribute.KeyValue,
) error {
	if tracer == nil {
		tracer = Tracer()
	}
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	if err := fn(ctx, span); err != nil {
		RecordError(span, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// RecordError marks span as failed with err.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent attaches a formatted event to the span in ctx, if any.
func AddEvent(ctx context.Context, format string, args ...any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(fmt.Sprintf(format, args...))
}

package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/teemow/meetgate"

// Span attribute keys.
const (
	SpanAttrTool       = "mcp.tool"
	SpanAttrOperation  = "calendar.operation"
	SpanAttrReadOnly   = "calendar.read_only"
	SpanAttrCalendar   = "calendar.label"
	SpanAttrEventID    = "calendar.event_id"
	SpanAttrEventCount = "calendar.event_count"
)

// IsReadOnly reports whether a Calendar operation leaves the calendar unchanged.
func IsReadOnly(operation string) bool {
	return operation == OperationList || operation == OperationGet
}

// StartToolSpan starts the server span of one tool call. calendarLabel is
// omitted when empty.
func StartToolSpan(ctx context.Context, tool, operation, calendarLabel string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(SpanAttrTool, tool),
		attribute.String(SpanAttrOperation, operation),
		attribute.Bool(SpanAttrReadOnly, IsReadOnly(operation)),
	}
	if calendarLabel != "" {
		attrs = append(attrs, attribute.String(SpanAttrCalendar, calendarLabel))
	}
	return otel.Tracer(tracerName).Start(ctx, "tool."+tool,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartCalendarSpan starts the client span of one Calendar API call. eventID
// is omitted when empty; Insert sets it once the event exists.
func StartCalendarSpan(ctx context.Context, operation, eventID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(SpanAttrOperation, operation)}
	if eventID != "" {
		attrs = append(attrs, attribute.String(SpanAttrEventID, eventID))
	}
	return otel.Tracer(tracerName).Start(ctx, "calendar."+operation,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/server"
)

// ToolHandler is the mcp-go tool handler signature. It is an alias so wrapped
// handlers can be passed straight to AddTool.
type ToolHandler = mcpserver.ToolHandlerFunc

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and audit
// logging. operation is the Calendar operation behind the tool; it labels the
// span and the calendar_api_calls_total metric.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("get_meeting", instrumentation.OperationGet, sc, handler))
func InstrumentedToolHandler(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		calendarLabel := instrumentation.CalendarLabel(sc.CalendarID())
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, operation, calendarLabel)

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithCalendar(sc.CalendarID()).
			WithOperation(operation)

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		failure := outcomeError(result, err)
		instrumentation.EndSpan(span, failure)
		invocation.Complete(failure == nil, failure)

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, invocation.Status(), calendarLabel, duration)
			if operation != "" && err == nil {
				metrics.RecordCalendarCall(ctx, operation, invocation.Status(), duration)
			}
		}
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}

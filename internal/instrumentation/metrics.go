package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrTool      = "tool"
	attrCalendar  = "calendar"
)

// knownPaths are the HTTP paths of the metrics server. Anything else is
// reported as "other".
var knownPaths = map[string]bool{
	"/metrics":          true,
	"/healthz":          true,
	"/healthz/detailed": true,
	"/readyz":           true,
}

// Metrics records tool calls, the Calendar operations behind them, token
// refreshes of the session and HTTP requests. The zero value records nothing.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	calendarCallsTotal   metric.Int64Counter
	calendarCallDuration metric.Float64Histogram

	tokenRefreshTotal metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// calendarLabel attaches the calendar label to tool metrics.
	calendarLabel bool
}

// NewMetrics creates every instrument on meter. With calendarLabel set, tool
// metrics carry the label of the served calendar.
func NewMetrics(meter metric.Meter, calendarLabel bool) (*Metrics, error) {
	m := &Metrics{
		calendarLabel: calendarLabel,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.calendarCallsTotal, err = meter.Int64Counter(
		"calendar_api_calls_total",
		metric.WithDescription("Total number of Google Calendar operations made for tool calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_calls_total counter: %w", err)
	}

	m.calendarCallDuration, err = meter.Float64Histogram(
		"calendar_api_call_duration_seconds",
		metric.WithDescription("Google Calendar operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_call_duration_seconds histogram: %w", err)
	}

	m.tokenRefreshTotal, err = meter.Int64Counter(
		"session_token_refresh_total",
		metric.WithDescription("Total number of access token refresh attempts by the session"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session_token_refresh_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// pathLabel collapses unknown request paths so scanners cannot grow the
// label set.
func pathLabel(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, pathLabel(path)),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCalendarCall records the Calendar operation (list, get, create,
// update or delete) behind a tool call.
func (m *Metrics) RecordCalendarCall(ctx context.Context, operation, status string, duration time.Duration) {
	if m.calendarCallsTotal == nil || m.calendarCallDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.calendarCallsTotal.Add(ctx, 1, attrs)
	m.calendarCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRefresh counts one refresh attempt of the session. result is
// google.RefreshSuccess or google.RefreshFailure.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records an MCP tool invocation. calendar is the label
// from CalendarLabel and is only attached when the calendar label is enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, calendar string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.calendarLabel && calendar != "" {
		attrs = append(attrs, attribute.String(attrCalendar, calendar))
	}

	opt := metric.WithAttributes(attrs...)
	m.toolInvocationsTotal.Add(ctx, 1, opt)
	m.toolDuration.Record(ctx, duration.Seconds(), opt)
}

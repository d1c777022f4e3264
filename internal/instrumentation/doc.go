// Package instrumentation provides OpenTelemetry instrumentation for the
// meetgate MCP server.
//
// # Metrics
//
// Metrics server HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Google Calendar Metrics:
//   - calendar_api_calls_total: Counter of Calendar operations by operation and status
//   - calendar_api_call_duration_seconds: Histogram of Calendar operation durations
//
// Session Metrics:
//   - session_token_refresh_total: Counter of token refresh attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of tool execution durations
//
// Request paths outside the gateway's own endpoints are reported as "other".
// Tool metrics carry the calendar label only when METRICS_CALENDAR_LABEL is
// set.
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and for Calendar
// API calls (calendar.<operation>).
//
// # Configuration
//
// ConfigFromEnv reads:
//   - INSTRUMENTATION_ENABLED: metrics and tracing (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP collector host:port
//   - OTEL_EXPORTER_OTLP_INSECURE: plain HTTP to the collector (default: false)
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - METRICS_CALENDAR_LABEL: calendar label on tool metrics (default: false)
//   - AUDIT_LOGGING_ENABLED: tool_executed/tool_failed records (default: true)
//
// The stdout exporters write to stderr because stdout carries the stdio
// transport.
//
// # Example Usage
//
//	config, err := instrumentation.ConfigFromEnv(os.LookupEnv)
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, config)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordToolInvocation(ctx, "list_meetings", instrumentation.StatusSuccess, "", time.Since(start))
package instrumentation

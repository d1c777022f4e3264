package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/server"
)

type harness struct {
	sc     *server.ServerContext
	reader *sdkmetric.ManualReader
	audit  *bytes.Buffer
	spans  *tracetest.SpanRecorder
}

func newHarness(t *testing.T, instrumented bool) *harness {
	t.Helper()
	h := &harness{sc: server.NewServerContextWithEvents(context.Background(), nil)}
	t.Cleanup(func() { _ = h.sc.Shutdown() })

	h.spans = tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(h.spans))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	if !instrumented {
		return h
	}

	h.reader = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(h.reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)
	h.sc.SetMetrics(m)

	h.audit = &bytes.Buffer{}
	h.sc.SetAuditLogger(instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(h.audit, nil))))
	return h
}

// statusCounts sums a counter by its status attribute.
func (h *harness) statusCounts(t *testing.T, name string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value("status")
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func (h *harness) auditRecord(t *testing.T) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(h.audit.Bytes(), &rec))
	return rec
}

func TestInstrumentedToolHandler_WithoutInstrumentation(t *testing.T) {
	h := newHarness(t, false)

	called := false
	wrapped := InstrumentedToolHandler("get_meeting", instrumentation.OperationGet, h.sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, result.IsError)

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "tool.get_meeting", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	h := newHarness(t, true)

	wrapped := InstrumentedToolHandler("list_meetings", instrumentation.OperationList, h.sc,
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("[]"), nil
		})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{instrumentation.StatusSuccess: 1}, h.statusCounts(t, "mcp_tool_invocations_total"))
	assert.Equal(t, map[string]int64{instrumentation.StatusSuccess: 1}, h.statusCounts(t, "calendar_api_calls_total"))

	rec := h.auditRecord(t)
	assert.Equal(t, "tool_executed", rec["msg"])
	assert.Equal(t, "list_meetings", rec["tool"])
	assert.Equal(t, "primary", rec["calendar"])
	assert.Equal(t, instrumentation.OperationList, rec["operation"])

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.True(t, attrs[instrumentation.SpanAttrReadOnly].AsBool())
	assert.Equal(t, instrumentation.OperationList, attrs[instrumentation.SpanAttrOperation].AsString())
	assert.Equal(t, "primary", attrs[instrumentation.SpanAttrCalendar].AsString())
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	h := newHarness(t, true)

	wrapped := InstrumentedToolHandler("delete_meeting", instrumentation.OperationDelete, h.sc,
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("delete_meeting failed: not found"), nil
		})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	assert.Equal(t, map[string]int64{instrumentation.StatusError: 1}, h.statusCounts(t, "mcp_tool_invocations_total"))
	assert.Equal(t, map[string]int64{instrumentation.StatusError: 1}, h.statusCounts(t, "calendar_api_calls_total"))

	rec := h.auditRecord(t)
	assert.Equal(t, "tool_failed", rec["msg"])
	assert.Equal(t, "delete_meeting failed: not found", rec["error"])

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "delete_meeting failed: not found", ended[0].Status().Description)
}

func TestInstrumentedToolHandler_ProtocolError(t *testing.T) {
	h := newHarness(t, true)
	protocolErr := errors.New("[-32602] invalid params: Missing required arguments: meeting_id")

	wrapped := InstrumentedToolHandler("get_meeting", instrumentation.OperationGet, h.sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, protocolErr
	})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	assert.Same(t, protocolErr, err)
	assert.Equal(t, map[string]int64{instrumentation.StatusError: 1}, h.statusCounts(t, "mcp_tool_invocations_total"))
	assert.Empty(t, h.statusCounts(t, "calendar_api_calls_total"), "a rejected call never reaches Calendar")
	assert.Equal(t, protocolErr.Error(), h.auditRecord(t)["error"])
}

func TestResultError(t *testing.T) {
	assert.EqualError(t, resultError(mcp.NewToolResultError("boom")), "boom")
	assert.EqualError(t, resultError(&mcp.CallToolResult{IsError: true}), "tool returned an error result")
}

func TestInstrumentedToolHandler_RegistersWithMCPServer(t *testing.T) {
	h := newHarness(t, true)

	var handler mcpserver.ToolHandlerFunc = InstrumentedToolHandler("get_meeting", instrumentation.OperationGet, h.sc,
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(false))
	s.AddTool(mcp.NewTool("get_meeting"), handler)

	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_meeting","arguments":{}}}`)
	data, err := json.Marshal(s.HandleMessage(context.Background(), req))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &resp), string(data))
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "ok", resp.Result.Content[0].Text)
	assert.False(t, resp.Result.IsError)
	assert.Equal(t, map[string]int64{instrumentation.StatusSuccess: 1}, h.statusCounts(t, "mcp_tool_invocations_total"))
}

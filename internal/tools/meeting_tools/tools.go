package meeting_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetgate/internal/server"
	"github.com/teemow/meetgate/internal/tools/common"
)

// RegisterMeetingTools registers every tool of the dispatcher's registry with
// the MCP server. Calls are instrumented with the metrics and audit logger of sc.
func RegisterMeetingTools(s *mcpserver.MCPServer, sc *server.ServerContext, d *Dispatcher) {
	for _, spec := range d.Registry().Tools() {
		name := spec.Name
		handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return d.Handle(ctx, name, request.GetArguments())
		}
		s.AddTool(spec.MCPTool(), common.InstrumentedToolHandler(name, spec.Operation, sc, handler))
	}
}

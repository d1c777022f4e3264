// Package meeting_tools exposes Google Meet meetings as MCP tools.
//
// The Registry holds the closed set of five tools. Each ToolSpec declares the
// argument contract, which drives both the advertised MCP input schema and the
// JSON Schema validation applied before a handler runs.
//
// Errors follow two classes. A ProtocolError (unknown tool, missing or invalid
// arguments) is returned as the handler's Go error so mcp-go answers with a
// JSON-RPC error. Every other failure is an execution error and is returned
// as a tool result with IsError set.
package meeting_tools

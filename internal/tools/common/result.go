package common

import (
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
)

// resultError extracts the message of an IsError tool result.
func resultError(result *mcp.CallToolResult) error {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok && text.Text != "" {
			return errors.New(text.Text)
		}
	}
	return errors.New("tool returned an error result")
}

// outcomeError is the failure of a tool call: the protocol error, the message
// of an IsError result, or nil.
func outcomeError(result *mcp.CallToolResult, err error) error {
	switch {
	case err != nil:
		return err
	case result != nil && result.IsError:
		return resultError(result)
	}
	return nil
}

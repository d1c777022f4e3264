package meeting_tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ProtocolError is a malformed request. It is never downgraded to an IsError
// result.
//
// mcp-go reports every handler error with its internal error code, so the
// JSON-RPC code is also carried as a "[code]" prefix of the message.
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	var kind string
	switch e.Code {
	case mcp.METHOD_NOT_FOUND:
		kind = "method not found"
	case mcp.INVALID_PARAMS:
		kind = "invalid params"
	default:
		kind = "protocol error"
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, kind, e.Message)
}

func methodNotFound(format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: mcp.METHOD_NOT_FOUND, Message: fmt.Sprintf(format, args...)}
}

func invalidParams(format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: mcp.INVALID_PARAMS, Message: fmt.Sprintf(format, args...)}
}

// IsProtocolError reports whether err is, or wraps, a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// ExecutionError is a failure while carrying out a well-formed call: a session
// failure, an upstream error or an event that is not a meeting.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Normalize converts the outcome of a tool call into what an mcp-go handler
// returns. Protocol errors pass through as Go errors; all other errors become
// an IsError result carrying the message.
func Normalize(tool string, value any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return mcp.NewToolResultError(executionMessage(tool, err)), nil
	}

	if text, ok := value.(string); ok {
		return mcp.NewToolResultText(text), nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(executionMessage(tool, fmt.Errorf("failed to encode result: %w", err))), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func executionMessage(tool string, err error) string {
	if tool == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s failed: %v", tool, err)
}

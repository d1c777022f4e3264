package meeting_tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/teemow/meetgate/internal/instrumentation"
)

// ParamType is the JSON type of a tool argument.
type ParamType string

const (
	TypeString      ParamType = "string"
	TypeNumber      ParamType = "number"
	TypeStringArray ParamType = "array"
)

// Param declares one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Description string
	// NonEmpty rejects the empty string.
	NonEmpty bool
	// Minimum and Maximum bound number arguments when non-zero.
	Minimum float64
	Maximum float64
}

// call is a validated tool invocation with typed arguments.
type call interface {
	run(ctx context.Context, env *callEnv) (any, error)
}

// ToolSpec describes a tool: its name, description and argument contract, and
// how to turn validated arguments into a call.
type ToolSpec struct {
	Name        string
	Description string
	// Operation is the Calendar operation type used for metrics.
	Operation string
	Params    []Param

	parse  func(args map[string]any, env *callEnv) (call, error)
	schema *gojsonschema.Schema
}

// Registry is the fixed set of tools served by the gateway.
type Registry struct {
	tools map[string]*ToolSpec
	order []string
}

// NewRegistry builds the registry of meeting tools and compiles their
// argument schemas.
func NewRegistry() (*Registry, error) {
	r := &Registry{tools: make(map[string]*ToolSpec)}
	for _, spec := range meetingToolSpecs() {
		if err := r.add(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(spec *ToolSpec) error {
	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("tool %s registered twice", spec.Name)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(spec.InputSchema()))
	if err != nil {
		return fmt.Errorf("invalid schema for tool %s: %w", spec.Name, err)
	}
	spec.schema = schema
	r.tools[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// Lookup returns the tool with the given name.
func (r *Registry) Lookup(name string) (*ToolSpec, bool) {
	spec, ok := r.tools[name]
	return spec, ok
}

// Tools returns all tools in registration order.
func (r *Registry) Tools() []*ToolSpec {
	specs := make([]*ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name])
	}
	return specs
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// InputSchema returns the JSON Schema of the tool's arguments.
func (t *ToolSpec) InputSchema() map[string]any {
	props := make(map[string]any, len(t.Params))
	required := []string{}
	for _, p := range t.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		switch p.Type {
		case TypeStringArray:
			prop["items"] = map[string]any{"type": "string"}
		case TypeNumber:
			if p.Minimum != 0 {
				prop["minimum"] = p.Minimum
			}
			if p.Maximum != 0 {
				prop["maximum"] = p.Maximum
			}
		case TypeString:
			if p.NonEmpty {
				prop["minLength"] = 1
			}
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// MCPTool returns the tool definition advertised over MCP.
func (t *ToolSpec) MCPTool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case TypeString:
			if p.NonEmpty {
				propOpts = append(propOpts, mcp.MinLength(1))
			}
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		case TypeNumber:
			if p.Minimum != 0 {
				propOpts = append(propOpts, mcp.Min(p.Minimum))
			}
			if p.Maximum != 0 {
				propOpts = append(propOpts, mcp.Max(p.Maximum))
			}
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case TypeStringArray:
			propOpts = append(propOpts, mcp.Items(map[string]any{"type": "string"}))
			opts = append(opts, mcp.WithArray(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}

func meetingToolSpecs() []*ToolSpec {
	return []*ToolSpec{
		{
			Name:        ToolListMeetings,
			Description: "List upcoming Google Meet meetings. Only events with a Meet video link are returned, ordered by start time.",
			Operation:   instrumentation.OperationList,
			Params: []Param{
				{Name: "max_results", Type: TypeNumber, Minimum: 1, Maximum: maxListResults,
					Description: fmt.Sprintf("Maximum number of meetings to return (default: %d)", defaultMaxResults)},
				{Name: "time_min", Type: TypeString,
					Description: "Start of the time range (RFC 3339, e.g. '2025-01-10T00:00:00Z'). Defaults to now."},
				{Name: "time_max", Type: TypeString,
					Description: "End of the time range (RFC 3339). Open-ended if omitted."},
			},
			parse: parseListMeetings,
		},
		{
			Name:        ToolGetMeeting,
			Description: "Get the details of a Google Meet meeting by its calendar event ID.",
			Operation:   instrumentation.OperationGet,
			Params: []Param{
				{Name: "meeting_id", Type: TypeString, Required: true, NonEmpty: true,
					Description: "Calendar event ID of the meeting"},
			},
			parse: parseGetMeeting,
		},
		{
			Name:        ToolCreateMeeting,
			Description: "Create a calendar event with a new Google Meet conference and return the meeting with its Meet link.",
			Operation:   instrumentation.OperationCreate,
			Params: []Param{
				{Name: "summary", Type: TypeString, Required: true,
					Description: "Meeting title"},
				{Name: "start_time", Type: TypeString, Required: true,
					Description: "Start time (RFC 3339 like '2025-01-10T09:00:00Z', local '2025-01-10T09:00:00' interpreted in time_zone, or a date for all-day meetings)"},
				{Name: "end_time", Type: TypeString, Required: true,
					Description: "End time, same formats as start_time"},
				{Name: "description", Type: TypeString,
					Description: "Meeting description"},
				{Name: "attendees", Type: TypeStringArray,
					Description: "Email addresses of the attendees"},
				{Name: "time_zone", Type: TypeString,
					Description: fmt.Sprintf("IANA time zone for the start and end times (default: %s)", defaultTimeZone)},
			},
			parse: parseCreateMeeting,
		},
		{
			Name:        ToolUpdateMeeting,
			Description: "Update a Google Meet meeting. Only the provided fields change; at least one of summary, description, start_time, end_time or attendees is required.",
			Operation:   instrumentation.OperationUpdate,
			Params: []Param{
				{Name: "meeting_id", Type: TypeString, Required: true, NonEmpty: true,
					Description: "Calendar event ID of the meeting"},
				{Name: "summary", Type: TypeString,
					Description: "New meeting title"},
				{Name: "description", Type: TypeString,
					Description: "New description (an empty string clears it)"},
				{Name: "start_time", Type: TypeString,
					Description: "New start time (RFC 3339, local date-time or date)"},
				{Name: "end_time", Type: TypeString,
					Description: "New end time (RFC 3339, local date-time or date)"},
				{Name: "attendees", Type: TypeStringArray,
					Description: "New attendee email addresses, replacing the current list (an empty list removes all attendees)"},
			},
			parse: parseUpdateMeeting,
		},
		{
			Name:        ToolDeleteMeeting,
			Description: "Delete a Google Meet meeting by its calendar event ID.",
			Operation:   instrumentation.OperationDelete,
			Params: []Param{
				{Name: "meeting_id", Type: TypeString, Required: true, NonEmpty: true,
					Description: "Calendar event ID of the meeting"},
			},
			parse: parseDeleteMeeting,
		},
	}
}

package meeting_tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/meetgate/internal/calendar"
	"github.com/teemow/meetgate/internal/logging"
)

// EventsProvider hands out an authenticated Calendar provider. It fails when
// the session cannot produce a valid token.
type EventsProvider interface {
	Events(ctx context.Context) (calendar.EventsService, error)
}

// Dispatcher validates tool calls and runs them against the provider.
type Dispatcher struct {
	registry     *Registry
	provider     EventsProvider
	now          func() time.Time
	newRequestID func() string
	logger       *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock sets the time source for default list windows.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithRequestIDs sets the generator for conference create request ids.
func WithRequestIDs(next func() string) DispatcherOption {
	return func(d *Dispatcher) {
		d.newRequestID = next
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a dispatcher for the tools in registry.
func NewDispatcher(registry *Registry, provider EventsProvider, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:     registry,
		provider:     provider,
		now:          time.Now,
		newRequestID: uuid.NewString,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher serves.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Call validates and runs a tool call. Malformed calls fail with a
// *ProtocolError before the session or the provider is touched; every other
// failure is an *ExecutionError.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	spec, ok := d.registry.Lookup(name)
	if !ok {
		return nil, methodNotFound("unknown tool %q", name)
	}

	args = normalizeArgs(args)
	if err := spec.validate(args); err != nil {
		return nil, err
	}
	env := &callEnv{
		now:          d.now,
		newRequestID: d.newRequestID,
		logger:       logging.WithTool(d.logger, name),
	}
	c, err := spec.parse(args, env)
	if err != nil {
		return nil, err
	}

	events, err := d.provider.Events(ctx)
	if err != nil {
		return nil, &ExecutionError{Tool: name, Err: err}
	}
	env.events = events

	result, err := c.run(ctx, env)
	if err != nil {
		env.logger.Debug("tool call failed", logging.Err(err))
		return nil, &ExecutionError{Tool: name, Err: err}
	}
	return result, nil
}

// Handle runs a tool call and normalizes the outcome for mcp-go.
func (d *Dispatcher) Handle(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	result, err := d.Call(ctx, name, args)
	return Normalize(name, result, err)
}

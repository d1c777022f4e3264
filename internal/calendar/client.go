package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/meetgate/internal/instrumentation"
)

// DefaultCalendarID addresses the authenticated user's primary calendar.
const DefaultCalendarID = "primary"

// MaxListResults is the largest page the Calendar API returns for events.
const MaxListResults = 2500

// ListOptions narrows an event listing. A zero TimeMax leaves the window open.
type ListOptions struct {
	TimeMin    time.Time
	TimeMax    time.Time
	MaxResults int64
}

// EventsService is the provider contract used by the meeting tools. All calls
// address one fixed calendar.
type EventsService interface {
	// ListEvents returns single occurrences ordered by start time.
	ListEvents(ctx context.Context, opts ListOptions) ([]*calendar.Event, error)
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	// InsertEvent creates ev, honoring any conference create request it carries.
	InsertEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error)
	// UpdateEvent replaces the whole event resource.
	UpdateEvent(ctx context.Context, eventID string, ev *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Client wraps the Google Calendar service for a single calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

var _ EventsService = (*Client)(nil)

// NewClient creates a Calendar client using an already authorized HTTP client.
// Extra options are appended after the HTTP client, e.g. option.WithEndpoint.
func NewClient(ctx context.Context, httpClient *http.Client, calendarID string, opts ...option.ClientOption) (*Client, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, calendarID: calendarID}, nil
}

// CalendarID returns the calendar this client addresses.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// ListEvents lists upcoming events within the window in opts.
func (c *Client) ListEvents(ctx context.Context, opts ListOptions) (_ []*calendar.Event, err error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationList, "")
	defer func() { instrumentation.EndSpan(span, err) }()

	call := c.svc.Events.List(c.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)
	if !opts.TimeMin.IsZero() {
		call = call.TimeMin(opts.TimeMin.Format(time.RFC3339))
	}
	if !opts.TimeMax.IsZero() {
		call = call.TimeMax(opts.TimeMax.Format(time.RFC3339))
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(opts.MaxResults)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrEventCount, len(events.Items)))
	return events.Items, nil
}

// GetEvent retrieves a single event.
func (c *Client) GetEvent(ctx context.Context, eventID string) (_ *calendar.Event, err error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationGet, eventID)
	defer func() { instrumentation.EndSpan(span, err) }()

	ev, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

// InsertEvent creates a new event. Conference data version 1 is always
// requested so a Meet conference create request is honored.
func (c *Client) InsertEvent(ctx context.Context, ev *calendar.Event) (_ *calendar.Event, err error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationCreate, "")
	defer func() { instrumentation.EndSpan(span, err) }()

	created, err := c.svc.Events.Insert(c.calendarID, ev).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	span.SetAttributes(attribute.String(instrumentation.SpanAttrEventID, created.Id))
	return created, nil
}

// UpdateEvent replaces an event. Conference data is sent back unchanged.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, ev *calendar.Event) (_ *calendar.Event, err error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationUpdate, eventID)
	defer func() { instrumentation.EndSpan(span, err) }()

	updated, err := c.svc.Events.Update(c.calendarID, eventID, ev).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return updated, nil
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) (err error) {
	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationDelete, eventID)
	defer func() { instrumentation.EndSpan(span, err) }()

	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

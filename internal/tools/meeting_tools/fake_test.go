package meeting_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/teemow/meetgate/internal/calendar"
)

var testNow = time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)

// fakeEvents is an in-memory calendar.EventsService that counts calls.
type fakeEvents struct {
	mu     sync.Mutex
	events map[string]*calendarapi.Event
	order  []string
	nextID int

	// insertWithoutConference makes InsertEvent ignore conference requests.
	insertWithoutConference bool
	deleteErr               error

	lists, gets, inserts, updates, deletes int
	lastList                               calendar.ListOptions
	lastInsert, lastUpdate                 *calendarapi.Event
}

func newFakeEvents(events ...*calendarapi.Event) *fakeEvents {
	f := &fakeEvents{events: make(map[string]*calendarapi.Event)}
	for _, ev := range events {
		f.events[ev.Id] = ev
		f.order = append(f.order, ev.Id)
	}
	return f
}

func notFound(id string) error {
	return fmt.Errorf("failed to get event: %w", &googleapi.Error{Code: 404, Message: "Not Found: " + id})
}

func (f *fakeEvents) ListEvents(_ context.Context, opts calendar.ListOptions) ([]*calendarapi.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	f.lastList = opts
	out := make([]*calendarapi.Event, 0, len(f.order))
	for _, id := range f.order {
		if ev, ok := f.events[id]; ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEvents) GetEvent(_ context.Context, id string) (*calendarapi.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	ev, ok := f.events[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeEvents) InsertEvent(_ context.Context, ev *calendarapi.Event) (*calendarapi.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	f.lastInsert = ev

	f.nextID++
	created := *ev
	created.Id = fmt.Sprintf("evt-%d", f.nextID)
	created.Created = "2025-01-09T12:00:00.000Z"
	created.Updated = created.Created
	created.Organizer = &calendarapi.EventOrganizer{Email: "owner@example.com"}
	created.ConferenceData = nil
	if ev.ConferenceData != nil && ev.ConferenceData.CreateRequest != nil && !f.insertWithoutConference {
		created.ConferenceData = meetConference("abc-defg-hij")
	}
	f.events[created.Id] = &created
	f.order = append(f.order, created.Id)
	return &created, nil
}

func (f *fakeEvents) UpdateEvent(_ context.Context, id string, ev *calendarapi.Event) (*calendarapi.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.lastUpdate = ev
	if _, ok := f.events[id]; !ok {
		return nil, notFound(id)
	}
	updated := *ev
	updated.Updated = "2025-01-09T13:00:00.000Z"
	f.events[id] = &updated
	return &updated, nil
}

func (f *fakeEvents) DeleteEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.events[id]; !ok {
		return notFound(id)
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEvents) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts + f.updates + f.deletes
}

func (f *fakeEvents) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists + f.gets + f.inserts + f.updates + f.deletes
}

// fakeProvider hands out events, or fails like a broken session.
type fakeProvider struct {
	mu     sync.Mutex
	events *fakeEvents
	err    error
	calls  int
}

func (p *fakeProvider) Events(context.Context) (calendar.EventsService, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.events, nil
}

func meetConference(code string) *calendarapi.ConferenceData {
	return &calendarapi.ConferenceData{
		ConferenceId: code,
		EntryPoints: []*calendarapi.EntryPoint{
			{EntryPointType: "video", Uri: "https://meet.google.com/" + code},
			{EntryPointType: "phone", Uri: "tel:+1-555-0100"},
		},
	}
}

func meetingEvent(id, summary string) *calendarapi.Event {
	return &calendarapi.Event{
		Id:          id,
		Summary:     summary,
		Description: "Weekly sync",
		Start:       &calendarapi.EventDateTime{DateTime: "2025-01-10T09:00:00+01:00", TimeZone: "Europe/Berlin"},
		End:         &calendarapi.EventDateTime{DateTime: "2025-01-10T09:30:00+01:00", TimeZone: "Europe/Berlin"},
		Attendees: []*calendarapi.EventAttendee{
			{Email: "alice@example.com", ResponseStatus: "accepted"},
		},
		Creator:        &calendarapi.EventCreator{Email: "owner@example.com"},
		Organizer:      &calendarapi.EventOrganizer{Email: "owner@example.com"},
		Created:        "2025-01-01T10:00:00.000Z",
		Updated:        "2025-01-02T10:00:00.000Z",
		ConferenceData: meetConference("xyz-abcd-efg"),
	}
}

func newTestDispatcher(t *testing.T, provider EventsProvider) *Dispatcher {
	t.Helper()
	registry, err := NewRegistry()
	require.NoError(t, err)

	n := 0
	return NewDispatcher(registry, provider,
		WithClock(func() time.Time { return testNow }),
		WithRequestIDs(func() string {
			n++
			return fmt.Sprintf("req-%d", n)
		}),
	)
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func decodeMeeting(t *testing.T, result *mcp.CallToolResult) calendar.Meeting {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var m calendar.Meeting
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &m))
	return m
}

func requireProtocolError(t *testing.T, err error, code int) *ProtocolError {
	t.Helper()
	var pe *ProtocolError
	require.True(t, errors.As(err, &pe), "expected protocol error, got %v", err)
	require.Equal(t, code, pe.Code)
	return pe
}

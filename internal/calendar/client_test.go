package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// fakeCalendarAPI records the last request made to a single event route.
type fakeCalendarAPI struct {
	t        *testing.T
	lastReq  *http.Request
	lastBody map[string]any
}

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastReq = r
	f.lastBody = nil
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			assert.NoError(f.t, json.Unmarshal(data, &f.lastBody))
		}
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/calendars/work@example.com/events":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []any{meetEvent("evt1"), &calendar.Event{Id: "evt2"}},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/calendars/work@example.com/events":
		ev := meetEvent("created")
		_ = json.NewEncoder(w).Encode(ev)
	case r.Method == http.MethodGet && r.URL.Path == "/calendars/work@example.com/events/evt1":
		_ = json.NewEncoder(w).Encode(meetEvent("evt1"))
	case r.Method == http.MethodPut && r.URL.Path == "/calendars/work@example.com/events/evt1":
		_ = json.NewEncoder(w).Encode(meetEvent("evt1"))
	case r.Method == http.MethodDelete && r.URL.Path == "/calendars/work@example.com/events/evt1":
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found","errors":[{"reason":"notFound","message":"Not Found"}]}}`))
	}
}

func newTestClient(t *testing.T) (*Client, *fakeCalendarAPI) {
	t.Helper()
	api := &fakeCalendarAPI{t: t}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), srv.Client(), "work@example.com", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c, api
}

func TestNewClient_DefaultCalendar(t *testing.T) {
	c, err := NewClient(context.Background(), http.DefaultClient, "", option.WithEndpoint("http://127.0.0.1:0/"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCalendarID, c.CalendarID())
}

func TestClient_ListEvents(t *testing.T) {
	c, api := newTestClient(t)

	timeMin := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	events, err := c.ListEvents(context.Background(), ListOptions{TimeMin: timeMin, MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt1", events[0].Id)

	q := api.lastReq.URL.Query()
	assert.Equal(t, "true", q.Get("singleEvents"))
	assert.Equal(t, "startTime", q.Get("orderBy"))
	assert.Equal(t, "5", q.Get("maxResults"))
	assert.Equal(t, "2025-01-10T00:00:00Z", q.Get("timeMin"))
	assert.Empty(t, q.Get("timeMax"))
}

func TestClient_InsertEventRequestsConference(t *testing.T) {
	c, api := newTestClient(t)

	summary := "Standup"
	created, err := c.InsertEvent(context.Background(), ToProviderEvent(EventInput{
		Summary:             &summary,
		Start:               &EventTime{DateTime: "2025-01-10T09:00:00Z", TimeZone: "UTC"},
		End:                 &EventTime{DateTime: "2025-01-10T09:30:00Z", TimeZone: "UTC"},
		ConferenceRequestID: "req-42",
	}))
	require.NoError(t, err)
	assert.Equal(t, "created", created.Id)

	assert.Equal(t, "1", api.lastReq.URL.Query().Get("conferenceDataVersion"))
	conf := api.lastBody["conferenceData"].(map[string]any)
	req := conf["createRequest"].(map[string]any)
	assert.Equal(t, "req-42", req["requestId"])
	assert.Equal(t, "hangoutsMeet", req["conferenceSolutionKey"].(map[string]any)["type"])
}

func TestClient_UpdateEventSendsExplicitEmptyDescription(t *testing.T) {
	c, api := newTestClient(t)

	existing, err := c.GetEvent(context.Background(), "evt1")
	require.NoError(t, err)

	empty := ""
	_, err = c.UpdateEvent(context.Background(), "evt1", ApplyUpdate(existing, EventInput{Description: &empty}))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, api.lastReq.Method)
	assert.Equal(t, "1", api.lastReq.URL.Query().Get("conferenceDataVersion"))
	desc, ok := api.lastBody["description"]
	require.True(t, ok, "description must be sent to clear it")
	assert.Equal(t, "", desc)
	assert.Equal(t, "Standup", api.lastBody["summary"])
}

func TestClient_DeleteEvent(t *testing.T) {
	c, api := newTestClient(t)

	require.NoError(t, c.DeleteEvent(context.Background(), "evt1"))
	assert.Equal(t, http.MethodDelete, api.lastReq.Method)
}

func TestClient_UpstreamErrorIsWrapped(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.GetEvent(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get event")

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

package meeting_tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/meetgate/internal/calendar"
	"github.com/teemow/meetgate/internal/logging"
)

// callEnv is what a call needs at run time.
type callEnv struct {
	events       calendar.EventsService
	now          func() time.Time
	newRequestID func() string
	logger       *slog.Logger
}

// DeleteResult acknowledges a deleted meeting.
type DeleteResult struct {
	Success   bool   `json:"success"`
	MeetingID string `json:"meeting_id"`
}

type listMeetingsCall struct {
	opts calendar.ListOptions
}

// run lists events and keeps only those that map to a meeting. Events without
// a video entry point are skipped, not reported.
func (c *listMeetingsCall) run(ctx context.Context, env *callEnv) (any, error) {
	events, err := env.events.ListEvents(ctx, c.opts)
	if err != nil {
		return nil, err
	}

	meetings := make([]*calendar.Meeting, 0, len(events))
	for _, ev := range events {
		if !calendar.HasConferenceData(ev) {
			continue
		}
		if m := calendar.FromProviderEvent(ev); m != nil {
			meetings = append(meetings, m)
		}
	}
	return meetings, nil
}

type getMeetingCall struct {
	meetingID string
}

func (c *getMeetingCall) run(ctx context.Context, env *callEnv) (any, error) {
	ev, err := env.events.GetEvent(ctx, c.meetingID)
	if err != nil {
		return nil, err
	}
	return calendar.RequireMeeting(ev)
}

type createMeetingCall struct {
	input calendar.EventInput
}

// run inserts the event with a conference request. If the created event
// carries no Meet link it is deleted again so no plain event is left behind.
func (c *createMeetingCall) run(ctx context.Context, env *callEnv) (any, error) {
	in := c.input
	in.ConferenceRequestID = env.newRequestID()

	created, err := env.events.InsertEvent(ctx, calendar.ToProviderEvent(in))
	if err != nil {
		return nil, err
	}

	m, err := calendar.RequireMeeting(created)
	if err == nil {
		return m, nil
	}

	if created.Id == "" {
		return nil, err
	}
	if delErr := env.events.DeleteEvent(ctx, created.Id); delErr != nil {
		env.logger.Error("failed to remove event created without conferencing",
			logging.Operation(ToolCreateMeeting),
			slog.String("event_id", created.Id),
			logging.Err(delErr))
		return nil, fmt.Errorf("%w (event %s was created and could not be removed: %v)", err, created.Id, delErr)
	}
	env.logger.Warn("removed event created without conferencing",
		logging.Operation(ToolCreateMeeting),
		slog.String("event_id", created.Id))
	return nil, err
}

type updateMeetingCall struct {
	meetingID string
	input     calendar.EventInput
}

func (c *updateMeetingCall) run(ctx context.Context, env *callEnv) (any, error) {
	existing, err := env.events.GetEvent(ctx, c.meetingID)
	if err != nil {
		return nil, err
	}

	updated, err := env.events.UpdateEvent(ctx, c.meetingID, calendar.ApplyUpdate(existing, c.input))
	if err != nil {
		return nil, err
	}
	return calendar.RequireMeeting(updated)
}

type deleteMeetingCall struct {
	meetingID string
}

func (c *deleteMeetingCall) run(ctx context.Context, env *callEnv) (any, error) {
	if err := env.events.DeleteEvent(ctx, c.meetingID); err != nil {
		return nil, err
	}
	return DeleteResult{Success: true, MeetingID: c.meetingID}, nil
}

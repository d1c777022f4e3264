package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// ToProviderEvent builds a new Calendar event from caller input. A conference
// create request is attached only when in.ConferenceRequestID is set.
func ToProviderEvent(in EventInput) *calendar.Event {
	ev := &calendar.Event{}
	applyInput(ev, in)

	if in.ConferenceRequestID != "" {
		ev.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: in.ConferenceRequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: conferenceHangoutsMeet,
				},
			},
		}
	}
	return ev
}

// ApplyUpdate returns a copy of existing with the provided fields of in applied.
// Fields absent from in are left unchanged. When a new start or end omits the
// time zone, the zone of the existing boundary is kept, falling back to UTC for
// local date-times.
func ApplyUpdate(existing *calendar.Event, in EventInput) *calendar.Event {
	ev := *existing
	ev.ForceSendFields = append([]string(nil), existing.ForceSendFields...)

	in.Start = inheritTimeZone(in.Start, existing.Start)
	in.End = inheritTimeZone(in.End, existing.End)
	in.ConferenceRequestID = ""

	applyInput(&ev, in)
	return &ev
}

func inheritTimeZone(t *EventTime, existing *calendar.EventDateTime) *EventTime {
	if t == nil || t.TimeZone != "" || t.Date != "" {
		return t
	}
	out := *t
	if existing != nil {
		out.TimeZone = existing.TimeZone
	}
	if out.TimeZone == "" && isLocalDateTime(out.DateTime) {
		out.TimeZone = "UTC"
	}
	return &out
}

func applyInput(ev *calendar.Event, in EventInput) {
	if in.Summary != nil {
		ev.Summary = *in.Summary
		if ev.Summary == "" {
			ev.ForceSendFields = append(ev.ForceSendFields, "Summary")
		}
	}
	if in.Description != nil {
		ev.Description = *in.Description
		if ev.Description == "" {
			// An explicit empty description must reach the API to clear it.
			ev.ForceSendFields = append(ev.ForceSendFields, "Description")
		}
	}
	if in.Start != nil {
		ev.Start = in.Start.toProvider()
	}
	if in.End != nil {
		ev.End = in.End.toProvider()
	}
	if in.Attendees != nil {
		ev.Attendees = make([]*calendar.EventAttendee, 0, len(in.Attendees))
		for _, email := range in.Attendees {
			ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
		}
		if len(ev.Attendees) == 0 {
			ev.ForceSendFields = append(ev.ForceSendFields, "Attendees")
		}
	}
}

func (t EventTime) toProvider() *calendar.EventDateTime {
	if t.Date != "" {
		return &calendar.EventDateTime{Date: t.Date}
	}
	return &calendar.EventDateTime{DateTime: t.DateTime, TimeZone: t.TimeZone}
}

// HasConferenceData reports whether ev carries any conferencing data.
func HasConferenceData(ev *calendar.Event) bool {
	return ev != nil && ev.ConferenceData != nil
}

// FromProviderEvent maps ev to a Meeting. It returns nil when ev has no
// conferencing data or no video entry point.
func FromProviderEvent(ev *calendar.Event) *Meeting {
	if !HasConferenceData(ev) {
		return nil
	}
	link := videoEntryPoint(ev.ConferenceData)
	if link == "" {
		return nil
	}

	m := &Meeting{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		MeetLink:    link,
		StartTime:   eventTimeString(ev.Start),
		EndTime:     eventTimeString(ev.End),
		Attendees:   make([]Attendee, 0, len(ev.Attendees)),
		Created:     ev.Created,
		Updated:     ev.Updated,
	}
	for _, att := range ev.Attendees {
		if att == nil {
			continue
		}
		m.Attendees = append(m.Attendees, Attendee{
			Email:          att.Email,
			ResponseStatus: att.ResponseStatus,
		})
	}
	if ev.Creator != nil {
		m.Creator = ev.Creator.Email
	}
	if ev.Organizer != nil {
		m.Organizer = ev.Organizer.Email
	}
	return m
}

// RequireMeeting maps ev to a Meeting for callers that address a meeting
// directly. Instead of nil it reports ErrNoConference or ErrNoVideoEntryPoint.
func RequireMeeting(ev *calendar.Event) (*Meeting, error) {
	if !HasConferenceData(ev) {
		return nil, ErrNoConference
	}
	m := FromProviderEvent(ev)
	if m == nil {
		return nil, ErrNoVideoEntryPoint
	}
	return m, nil
}

func videoEntryPoint(cd *calendar.ConferenceData) string {
	for _, ep := range cd.EntryPoints {
		if ep != nil && ep.EntryPointType == entryPointVideo && ep.Uri != "" {
			return ep.Uri
		}
	}
	return ""
}

func eventTimeString(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

package calendar

import "errors"

// Meeting is an event that carries a Meet video link.
type Meeting struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	MeetLink    string     `json:"meet_link,omitempty"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Attendees   []Attendee `json:"attendees"`
	Creator     string     `json:"creator,omitempty"`
	Organizer   string     `json:"organizer,omitempty"`
	Created     string     `json:"created"`
	Updated     string     `json:"updated"`
}

// Attendee is a meeting participant.
type Attendee struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"response_status"`
}

// EventTime is an event boundary. Exactly one of DateTime or Date is set; Date
// marks an all-day event.
type EventTime struct {
	DateTime string
	Date     string
	TimeZone string
}

// EventInput carries the meeting fields supplied by a caller. Nil pointers and
// a nil Attendees slice mean "not provided"; an empty non-nil slice clears the
// attendee list.
type EventInput struct {
	Summary     *string
	Description *string
	Start       *EventTime
	End         *EventTime
	Attendees   []string

	// ConferenceRequestID requests a new Meet conference when set. Only the
	// create path sets it.
	ConferenceRequestID string
}

// HasChanges reports whether any updatable field is present.
func (in EventInput) HasChanges() bool {
	return in.Summary != nil || in.Description != nil || in.Start != nil || in.End != nil || in.Attendees != nil
}

var (
	// ErrNoConference marks an event without conferencing data.
	ErrNoConference = errors.New("event does not have Meet conferencing data")

	// ErrNoVideoEntryPoint marks conferencing data without a video entry point.
	ErrNoVideoEntryPoint = errors.New("failed to format meeting: no video entry point")
)

const (
	entryPointVideo        = "video"
	conferenceHangoutsMeet = "hangoutsMeet"
)

package meeting_tools

import (
	"encoding/json"
	"math"

	"github.com/teemow/meetgate/internal/calendar"
)

// Tool names.
const (
	ToolListMeetings  = "list_meetings"
	ToolGetMeeting    = "get_meeting"
	ToolCreateMeeting = "create_meeting"
	ToolUpdateMeeting = "update_meeting"
	ToolDeleteMeeting = "delete_meeting"
)

const (
	defaultMaxResults = 10
	maxListResults    = calendar.MaxListResults
	defaultTimeZone   = "UTC"
)

type listMeetingsArgs struct {
	MaxResults *float64 `json:"max_results"`
	TimeMin    *string  `json:"time_min"`
	TimeMax    *string  `json:"time_max"`
}

type meetingIDArgs struct {
	MeetingID string `json:"meeting_id"`
}

type createMeetingArgs struct {
	Summary     string   `json:"summary"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Description string   `json:"description"`
	Attendees   []string `json:"attendees"`
	TimeZone    *string  `json:"time_zone"`
}

// updateMeetingArgs uses pointers so absent fields can be told apart from
// explicit empty values.
type updateMeetingArgs struct {
	MeetingID   string   `json:"meeting_id"`
	Summary     *string  `json:"summary"`
	Description *string  `json:"description"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	Attendees   []string `json:"attendees"`
}

// decodeArgs copies schema-validated arguments into a typed struct.
func decodeArgs(args map[string]any, out any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return invalidParams("arguments are not valid JSON: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return invalidParams("arguments could not be decoded: %v", err)
	}
	return nil
}

func parseListMeetings(args map[string]any, env *callEnv) (call, error) {
	var a listMeetingsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	c := &listMeetingsCall{opts: calendar.ListOptions{
		TimeMin:    env.now(),
		MaxResults: defaultMaxResults,
	}}
	if a.MaxResults != nil {
		n := *a.MaxResults
		if n != math.Trunc(n) || n < 1 || n > maxListResults {
			return nil, invalidParams("max_results must be an integer between 1 and %d", maxListResults)
		}
		c.opts.MaxResults = int64(n)
	}
	if a.TimeMin != nil {
		t, err := calendar.ParseInstant(*a.TimeMin)
		if err != nil {
			return nil, invalidParams("time_min: %v", err)
		}
		c.opts.TimeMin = t
	}
	if a.TimeMax != nil {
		t, err := calendar.ParseInstant(*a.TimeMax)
		if err != nil {
			return nil, invalidParams("time_max: %v", err)
		}
		if !t.After(c.opts.TimeMin) {
			return nil, invalidParams("time_max must be after time_min")
		}
		c.opts.TimeMax = t
	}
	return c, nil
}

func parseGetMeeting(args map[string]any, _ *callEnv) (call, error) {
	var a meetingIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return &getMeetingCall{meetingID: a.MeetingID}, nil
}

func parseDeleteMeeting(args map[string]any, _ *callEnv) (call, error) {
	var a meetingIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return &deleteMeetingCall{meetingID: a.MeetingID}, nil
}

func parseCreateMeeting(args map[string]any, _ *callEnv) (call, error) {
	var a createMeetingArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	tz := defaultTimeZone
	if a.TimeZone != nil && *a.TimeZone != "" {
		tz = *a.TimeZone
	}
	start, err := calendar.ParseEventTime(a.StartTime, tz)
	if err != nil {
		return nil, invalidParams("start_time: %v", err)
	}
	end, err := calendar.ParseEventTime(a.EndTime, tz)
	if err != nil {
		return nil, invalidParams("end_time: %v", err)
	}

	attendees := a.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return &createMeetingCall{input: calendar.EventInput{
		Summary:     &a.Summary,
		Description: &a.Description,
		Start:       &start,
		End:         &end,
		Attendees:   attendees,
	}}, nil
}

func parseUpdateMeeting(args map[string]any, _ *callEnv) (call, error) {
	var a updateMeetingArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	in := calendar.EventInput{
		Summary:     a.Summary,
		Description: a.Description,
		Attendees:   a.Attendees,
	}
	if a.StartTime != nil {
		start, err := calendar.ParseEventTime(*a.StartTime, "")
		if err != nil {
			return nil, invalidParams("start_time: %v", err)
		}
		in.Start = &start
	}
	if a.EndTime != nil {
		end, err := calendar.ParseEventTime(*a.EndTime, "")
		if err != nil {
			return nil, invalidParams("end_time: %v", err)
		}
		in.End = &end
	}
	if !in.HasChanges() {
		return nil, invalidParams("at least one of summary, description, start_time, end_time or attendees must be provided")
	}
	return &updateMeetingCall{meetingID: a.MeetingID, input: in}, nil
}

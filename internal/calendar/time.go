package calendar

import (
	"fmt"
	"time"
)

const (
	dateLayout          = "2006-01-02"
	localDateTimeLayout = "2006-01-02T15:04:05"
)

// ParseEventTime interprets an event boundary supplied by a caller. It accepts
// RFC 3339 timestamps, local date-times without an offset (interpreted in
// timeZone by the API) and dates for all-day events. timeZone may be empty.
func ParseEventTime(value, timeZone string) (EventTime, error) {
	if _, err := time.Parse(time.RFC3339, value); err == nil {
		return EventTime{DateTime: value, TimeZone: timeZone}, nil
	}
	if isLocalDateTime(value) {
		return EventTime{DateTime: value, TimeZone: timeZone}, nil
	}
	if _, err := time.Parse(dateLayout, value); err == nil {
		return EventTime{Date: value}, nil
	}
	return EventTime{}, fmt.Errorf("invalid time %q: expected RFC 3339 (2025-01-10T09:00:00Z), local date-time (2025-01-10T09:00:00) or date (2025-01-10)", value)
}

// ParseInstant parses an RFC 3339 timestamp used as a list boundary.
func ParseInstant(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected RFC 3339 (2025-01-10T09:00:00Z)", value)
	}
	return t, nil
}

func isLocalDateTime(value string) bool {
	_, err := time.Parse(localDateTimeLayout, value)
	return err == nil
}

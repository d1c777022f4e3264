package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		timeZone string
		want     EventTime
		wantErr  bool
	}{
		{
			name:  "rfc3339 utc",
			value: "2025-01-10T09:00:00Z",
			want:  EventTime{DateTime: "2025-01-10T09:00:00Z"},
		},
		{
			name:     "rfc3339 offset keeps zone",
			value:    "2025-01-10T09:00:00+01:00",
			timeZone: "Europe/Berlin",
			want:     EventTime{DateTime: "2025-01-10T09:00:00+01:00", TimeZone: "Europe/Berlin"},
		},
		{
			name:     "local date-time",
			value:    "2025-01-10T09:00:00",
			timeZone: "America/New_York",
			want:     EventTime{DateTime: "2025-01-10T09:00:00", TimeZone: "America/New_York"},
		},
		{
			name:  "local date-time without zone",
			value: "2025-01-10T09:00:00",
			want:  EventTime{DateTime: "2025-01-10T09:00:00"},
		},
		{
			name:     "all-day",
			value:    "2025-01-10",
			timeZone: "UTC",
			want:     EventTime{Date: "2025-01-10"},
		},
		{name: "garbage", value: "tomorrow", wantErr: true},
		{name: "empty", value: "", wantErr: true},
		{name: "bad month", value: "2025-13-10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEventTime(tt.value, tt.timeZone)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2025-01-10T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())

	_, err = ParseInstant("2025-01-10")
	assert.Error(t, err)
}

// Package calendar maps Google Calendar events to meetings and talks to the
// Calendar v3 API on behalf of the gateway.
//
// A Meeting is the tool-facing view of an event. Only events that carry Meet
// conferencing data with a "video" entry point are meetings; FromProviderEvent
// returns nil for everything else and callers decide whether that is an error.
//
// EventsService is the provider contract used by the tool handlers. Client is
// its implementation against a single calendar of the authenticated user.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, session.HTTPClient(), "primary")
//	if err != nil {
//	    return err
//	}
//	events, err := client.ListEvents(ctx, calendar.ListOptions{TimeMin: time.Now(), MaxResults: 10})
package calendar

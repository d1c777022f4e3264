package google

// CalendarScope grants read and write access to the user's calendars. It covers
// events and the Meet conference data attached to them.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// DefaultOAuthScopes are the Google OAuth scopes requested by the auth command
// and attached to every refresh request.
var DefaultOAuthScopes = []string{
	CalendarScope,
}

// Package google provides OAuth2 authentication and token management for the
// Google Calendar API.
//
// A Session owns the single authenticated identity of the gateway. It loads the
// OAuth client credentials and the saved user token from disk, refreshes the
// token when it has expired and persists the refreshed token atomically before
// any Calendar call proceeds.
//
// The Session implements oauth2.TokenSource so it can back an authenticated
// *http.Client for the Calendar service.
package google

// Package logging provides structured logging utilities for meetgate.
//
// All logging goes through log/slog. This package builds the process logger
// and keeps attribute names consistent across packages.
//
// # Usage Patterns
//
//	logger := logging.WithTool(slog.Default(), "create_meeting")
//	logger.Warn("removed event created without conferencing",
//	    logging.EventID(id),
//	    logging.Calendar(calendarID))
//
// # Security Considerations
//
//   - Access and refresh tokens are never logged, only their length
//   - Calendar ids are reduced to their domain
package logging

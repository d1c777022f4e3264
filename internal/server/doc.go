// Package server holds the shared runtime state of the gateway and its HTTP
// surfaces.
//
// ServerContext owns the single OAuth session and the Calendar provider built
// on top of it. The session is created lazily on the first tool call, and a
// failed session is replaced on the next call so that re-running the auth
// command recovers a running server.
//
// MetricsServer runs next to the stdio transport on its own port. It exposes
// Prometheus metrics on /metrics and the /healthz and /readyz probes.
// Readiness turns false while the session is failed.
package server

package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"google.golang.org/api/option"

	"github.com/teemow/meetgate/internal/calendar"
	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/logging"
)

// Options configures a ServerContext.
type Options struct {
	Credentials *google.Credentials
	TokenStore  google.TokenStore
	CalendarID  string

	// SessionOptions are applied to every Session the context builds.
	SessionOptions []google.SessionOption
	// ClientOptions are appended when the Calendar client is created.
	ClientOptions []option.ClientOption

	Logger *slog.Logger
}

// ServerContext owns the authenticated session and the Calendar provider
// shared by all tool calls.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	logger *slog.Logger

	mu          sync.RWMutex
	session     *google.Session
	events      calendar.EventsService
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	shutdown    bool
}

// NewServerContext creates a new server context. No token is read until the
// first call to Events.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Credentials == nil {
		return nil, errors.New("credentials are required")
	}
	if opts.TokenStore == nil {
		return nil, errors.New("token store is required")
	}
	if opts.CalendarID == "" {
		opts.CalendarID = calendar.DefaultCalendarID
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		opts:   opts,
		logger: logger,
	}, nil
}

// NewServerContextWithEvents creates a server context around a fixed provider.
// It is used by tests and by callers that manage authentication themselves.
func NewServerContextWithEvents(ctx context.Context, events calendar.EventsService) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		logger: slog.Default(),
		events: events,
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// CalendarID returns the calendar all tools operate on.
func (sc *ServerContext) CalendarID() string {
	if sc.opts.CalendarID == "" {
		return calendar.DefaultCalendarID
	}
	return sc.opts.CalendarID
}

// Events returns the Calendar provider after making sure the session holds a
// valid token. A failed session is replaced by a fresh one on the next call,
// so re-authorizing out of band recovers without a restart.
func (sc *ServerContext) Events(ctx context.Context) (calendar.EventsService, error) {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil, errors.New("server is shutting down")
	}
	if sc.opts.Credentials == nil {
		// Fixed provider without a session.
		events := sc.events
		sc.mu.Unlock()
		return events, nil
	}
	if sc.session == nil || sc.session.State() == google.StateFailed {
		if sc.session != nil {
			sc.logger.Info("replacing failed session", logging.Operation("session"))
		}
		sc.session = sc.newSession()
		sc.events = nil
	}
	session := sc.session
	sc.mu.Unlock()

	if err := session.Ensure(ctx); err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.session == session && sc.events != nil {
		return sc.events, nil
	}
	client, err := calendar.NewClient(sc.ctx, session.HTTPClient(), sc.opts.CalendarID, sc.opts.ClientOptions...)
	if err != nil {
		return nil, err
	}
	if sc.session == session {
		sc.events = client
	}
	return client, nil
}

// Session returns the current session, or nil before the first tool call.
func (sc *ServerContext) Session() *google.Session {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.session
}

func (sc *ServerContext) newSession() *google.Session {
	opts := []google.SessionOption{google.WithLogger(sc.logger)}
	opts = append(opts, google.WithRefreshObserver(func(ctx context.Context, result string) {
		if m := sc.Metrics(); m != nil {
			m.RecordTokenRefresh(ctx, result)
		}
	}))
	opts = append(opts, sc.opts.SessionOptions...)
	return google.NewSession(sc.opts.Credentials, sc.opts.TokenStore, opts...)
}

// SetMetrics sets the metrics recorder used by instrumented tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil if instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger for tool invocations.
func (sc *ServerContext) SetAuditLogger(l *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = l
}

// AuditLogger returns the audit logger, or nil if none is configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/teemow/meetgate/internal/logging"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateUninitialized means no token has been loaded yet.
	StateUninitialized State = iota
	// StateAuthenticated means the session holds a token that was valid when last checked.
	StateAuthenticated
	// StateRefreshing means a refresh against the token endpoint is in flight.
	StateRefreshing
	// StateFailed is terminal. A new Session must be built to recover.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Refresh outcomes reported to a RefreshObserver.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
)

// expiryMargin refreshes tokens slightly before their recorded expiry so a
// token does not lapse between the check and the Calendar call.
const expiryMargin = 30 * time.Second

// RefreshObserver is notified after every refresh attempt.
type RefreshObserver func(ctx context.Context, result string)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) SessionOption {
	return func(s *Session) {
		s.httpClient = c
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// WithRefreshObserver registers a callback for refresh outcomes.
func WithRefreshObserver(o RefreshObserver) SessionOption {
	return func(s *Session) {
		s.observer = o
	}
}

// Session holds the gateway's single authenticated identity.
//
// Initialization is lazy: nothing is read from the token store until the first
// call to Ensure. Concurrent callers that find an expired token share a single
// refresh.
type Session struct {
	creds      *Credentials
	store      TokenStore
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger
	observer   RefreshObserver

	mu    sync.RWMutex
	state State
	token *oauth2.Token
	err   error

	group singleflight.Group
}

// NewSession creates an uninitialized session.
func NewSession(creds *Credentials, store TokenStore, opts ...SessionOption) *Session {
	s := &Session{
		creds:  creds,
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
		state:  StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the error that moved the session into StateFailed, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Ensure makes sure the session holds a valid access token, loading and
// refreshing it as needed. A refreshed token is persisted before Ensure returns.
func (s *Session) Ensure(ctx context.Context) error {
	s.mu.RLock()
	state, tok, failure := s.state, s.token, s.err
	s.mu.RUnlock()

	switch state {
	case StateFailed:
		return failure
	case StateAuthenticated:
		if !s.expired(tok) {
			return nil
		}
	}

	// The authentication is shared by every waiting caller, so it runs detached
	// from the cancellation of whichever caller started it.
	ch := s.group.DoChan("authenticate", func() (any, error) {
		return nil, s.authenticate(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("waiting for session: %w", ctx.Err())
	}
}

// Token implements oauth2.TokenSource. It returns the token held in memory and
// never contacts the token endpoint; call Ensure first.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == StateFailed {
		return nil, s.err
	}
	if s.token == nil {
		return nil, &AuthError{Err: ErrNoToken}
	}
	tok := *s.token
	return &tok, nil
}

// HTTPClient returns a client that authorizes requests with the session token.
// The client uses HTTP/1.1 to avoid HTTP/2 stream errors seen against Google APIs.
func (s *Session) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: s,
			Base:   &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		},
	}
}

func (s *Session) authenticate(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateFailed:
		err := s.err
		s.mu.Unlock()
		return err
	case StateUninitialized:
		tok, err := s.store.Load()
		if err != nil {
			s.failLocked(err)
			s.mu.Unlock()
			return s.err
		}
		s.token = tok
		s.state = StateAuthenticated
		s.logger.Debug("loaded saved token",
			logging.Operation("session.load"),
			logging.Token(tok.AccessToken),
			slog.Bool("has_refresh_token", tok.RefreshToken != ""))
	}

	current := s.token
	if !s.expired(current) {
		s.mu.Unlock()
		return nil
	}
	s.state = StateRefreshing
	s.mu.Unlock()

	refreshed, err := s.refresh(ctx, current)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.notify(ctx, RefreshFailure)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// An interrupted request says nothing about the refresh token. The
			// next call tries again.
			s.state = StateAuthenticated
			s.logger.Warn("token refresh interrupted",
				logging.Operation("session.refresh"),
				logging.Err(err))
			return &AuthError{Err: err}
		}
		s.failLocked(err)
		return s.err
	}
	s.notify(ctx, RefreshSuccess)

	if err := s.store.Save(refreshed); err != nil {
		// The refreshed token is still usable for this process.
		s.logger.Error("failed to persist refreshed token",
			logging.Operation("session.refresh"),
			logging.Err(err))
	}
	s.token = refreshed
	s.state = StateAuthenticated
	s.logger.Info("refreshed access token",
		logging.Operation("session.refresh"),
		slog.Time("expiry", refreshed.Expiry))
	return nil
}

func (s *Session) refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired and no refresh token is available", ErrRefreshFailed)
	}
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	// Only the refresh token is handed over so the source always refreshes.
	src := s.creds.Config().TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken})
	refreshed, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			return nil, fmt.Errorf("%w: %s", ErrRefreshFailed, retrieveErr.ErrorCode)
		}
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	return refreshed, nil
}

// failLocked moves the session into StateFailed. s.mu must be held.
func (s *Session) failLocked(err error) {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		err = &AuthError{Err: err}
	}
	s.state = StateFailed
	s.err = err
	s.logger.Warn("session failed", logging.Operation("session"), logging.Err(err))
}

func (s *Session) expired(tok *oauth2.Token) bool {
	if tok == nil {
		return true
	}
	if tok.AccessToken == "" {
		return true
	}
	if tok.Expiry.IsZero() {
		return false
	}
	return !s.now().Add(expiryMargin).Before(tok.Expiry)
}

func (s *Session) notify(ctx context.Context, result string) {
	if s.observer != nil {
		s.observer(ctx, result)
	}
}

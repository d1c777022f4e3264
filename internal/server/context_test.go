package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/oauth2"

	"github.com/teemow/meetgate/internal/calendar"
	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/instrumentation"
)

type testEnv struct {
	store    *google.FileTokenStore
	creds    *google.Credentials
	refreshes atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := env.refreshes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("fresh-%d", n),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(tokenServer.Close)

	dir := t.TempDir()
	data := fmt.Sprintf(`{"installed":{"client_id":"client-123","client_secret":"secret","auth_uri":"https://accounts.example.com/auth","token_uri":%q,"redirect_uris":["http://localhost"]}}`, tokenServer.URL+"/token")
	creds, err := google.ParseCredentials(filepath.Join(dir, "credentials.json"), []byte(data))
	require.NoError(t, err)

	env.creds = creds
	env.store = google.NewFileTokenStore(filepath.Join(dir, "token.json"))
	return env
}

func (e *testEnv) serverContext(t *testing.T) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), Options{
		Credentials: e.creds,
		TokenStore:  e.store,
		CalendarID:  "team@example.com",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewServerContext(context.Background(), Options{TokenStore: env.store})
	assert.ErrorContains(t, err, "credentials are required")

	_, err = NewServerContext(context.Background(), Options{Credentials: env.creds})
	assert.ErrorContains(t, err, "token store is required")

	sc, err := NewServerContext(context.Background(), Options{Credentials: env.creds, TokenStore: env.store})
	require.NoError(t, err)
	assert.Equal(t, calendar.DefaultCalendarID, sc.CalendarID())
	assert.Nil(t, sc.Session(), "no session before the first call")
}

func TestServerContext_Events_ValidToken(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Save(&oauth2.Token{
		AccessToken:  "valid",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}))
	sc := env.serverContext(t)

	events, err := sc.Events(context.Background())
	require.NoError(t, err)
	require.NotNil(t, events)
	assert.Equal(t, google.StateAuthenticated, sc.Session().State())

	again, err := sc.Events(context.Background())
	require.NoError(t, err)
	assert.Same(t, events, again, "provider is cached while the session is healthy")
	assert.Equal(t, int32(0), env.refreshes.Load())
}

func TestServerContext_Events_RecoversAfterReauthorization(t *testing.T) {
	env := newTestEnv(t)
	sc := env.serverContext(t)

	_, err := sc.Events(context.Background())
	require.Error(t, err)
	assert.True(t, google.IsAuthError(err))
	failed := sc.Session()
	assert.Equal(t, google.StateFailed, failed.State())

	require.NoError(t, env.store.Save(&oauth2.Token{
		AccessToken:  "valid",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}))

	events, err := sc.Events(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.NotSame(t, failed, sc.Session())
	assert.Equal(t, google.StateAuthenticated, sc.Session().State())
}

func TestServerContext_RefreshRecordsMetrics(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Save(&oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}))
	sc := env.serverContext(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)
	sc.SetMetrics(m)

	_, err = sc.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), env.refreshes.Load())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "session_token_refresh_total" {
				continue
			}
			for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), total)

	saved, err := env.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh-1", saved.AccessToken)
}

func TestServerContext_Shutdown(t *testing.T) {
	env := newTestEnv(t)
	sc := env.serverContext(t)

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	_, err := sc.Events(context.Background())
	assert.ErrorContains(t, err, "shutting down")

	assert.NoError(t, sc.Shutdown(), "second shutdown is a no-op")
}

func TestNewServerContextWithEvents(t *testing.T) {
	sc := NewServerContextWithEvents(context.Background(), nil)
	defer func() { _ = sc.Shutdown() }()

	events, err := sc.Events(context.Background())
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.Nil(t, sc.Session())
	assert.Equal(t, calendar.DefaultCalendarID, sc.CalendarID())
}

func TestServerContext_TokenFileUntouchedWhenValid(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Save(&oauth2.Token{AccessToken: "valid", Expiry: time.Now().Add(time.Hour)}))
	before, err := os.Stat(env.store.Path())
	require.NoError(t, err)

	sc := env.serverContext(t)
	_, err = sc.Events(context.Background())
	require.NoError(t, err)

	after, err := os.Stat(env.store.Path())
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagehand/internal/api"
	"stagehand/internal/boundary"
	"stagehand/internal/catalog"
	"stagehand/internal/config"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newHealthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSettings(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	settings := config.GetDefaultConfig()
	settings.Remote.BaseURL = baseURL
	settings.Remote.PingOnInit = true
	settings.Session.TokenFile = filepath.Join(t.TempDir(), "token.json")
	settings.Session.Watch = false
	return &settings
}

func newTestApplication(t *testing.T, settings *config.Config) (*Application, *syncBuffer) {
	t.Helper()
	t.Cleanup(func() { api.RegisterConsumer(nil) })

	out := &syncBuffer{}
	cfg := NewConfig(false, true, "")
	cfg.Out = out
	cfg.Settings = settings

	application, err := NewApplication(cfg)
	require.NoError(t, err)
	return application, out
}

func TestNewApplication(t *testing.T) {
	srv := newHealthServer(t, http.StatusOK)
	application, _ := newTestApplication(t, testSettings(t, srv.URL))

	services := application.Services()
	require.NotNil(t, services)
	assert.Equal(t, len(catalog.All()), services.Registry.Len())
	assert.Nil(t, services.Watcher)
	assert.NotNil(t, api.GetConsumer(), "orchestrator is registered with the API layer")
	assert.Equal(t, api.GlobalPending, services.ConsumerAPI.GlobalState())
}

func TestNewApplicationLoadsConfigPath(t *testing.T) {
	t.Cleanup(func() { api.RegisterConsumer(nil) })

	dir := t.TempDir()
	data := "startup:\n  parallel: true\n  orderPolicy: reorder\nunits:\n  endpoints:\n    mode: lazy\nsession:\n  tokenFile: token.json\n  watch: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(data), 0600))

	cfg := NewConfig(true, true, dir)
	cfg.Out = &syncBuffer{}
	application, err := NewApplication(cfg)
	require.NoError(t, err)

	assert.True(t, cfg.Settings.Startup.Parallel)
	assert.Equal(t, filepath.Join(dir, "token.json"), cfg.Settings.Session.TokenFile)
	assert.NotNil(t, application.Services().Watcher)

	def, ok := application.Services().Registry.Get(catalog.Endpoints)
	require.True(t, ok)
	assert.Equal(t, api.ModeLazy, def.Mode)
}

func TestNewApplicationInvalidConfig(t *testing.T) {
	settings := config.GetDefaultConfig()
	settings.Startup.HintOrder = []string{"remote", "printer"}
	settings.Units = map[string]config.UnitConfig{"devices": {Mode: "sometimes"}}

	cfg := NewConfig(false, true, "")
	cfg.Out = &syncBuffer{}
	cfg.Settings = &settings

	_, err := NewApplication(cfg)
	require.Error(t, err)

	var collection *config.ConfigurationErrorCollection
	require.ErrorAs(t, err, &collection)
	assert.Equal(t, 2, collection.Count())
}

func TestRunUntilInterrupted(t *testing.T) {
	srv := newHealthServer(t, http.StatusOK)
	application, out := newTestApplication(t, testSettings(t, srv.URL))
	consumer := application.Services().ConsumerAPI

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	require.Eventually(t, func() bool {
		return consumer.GlobalState() == api.GlobalReady
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, consumer.IsReady(catalog.Remote))
	assert.False(t, consumer.IsReady(catalog.Files), "lazy units are not started")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Equal(t, api.GlobalPending, consumer.GlobalState(), "shutdown resets every unit")
	assert.Contains(t, out.String(), "devices")
}

func TestRunStartupFailure(t *testing.T) {
	srv := newHealthServer(t, http.StatusServiceUnavailable)
	application, out := newTestApplication(t, testSettings(t, srv.URL))

	err := application.Run(context.Background())
	assert.ErrorIs(t, err, boundary.ErrStartupFailed)
	assert.Contains(t, out.String(), "Remote subsystem failed to start")
	assert.Contains(t, out.String(), "status=503")
	assert.Contains(t, out.String(), "Recent log:")
}

func TestServicesRetry(t *testing.T) {
	healthy := false
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	application, _ := newTestApplication(t, testSettings(t, srv.URL))
	services := application.Services()
	ctx := context.Background()

	require.Error(t, services.Orchestrator.Start(ctx))
	assert.Equal(t, api.GlobalError, services.ConsumerAPI.GlobalState())
	assert.Error(t, services.retry(ctx), "still unhealthy")

	mu.Lock()
	healthy = true
	mu.Unlock()

	require.NoError(t, services.retry(ctx))
	assert.Equal(t, api.GlobalReady, services.ConsumerAPI.GlobalState())
	for _, id := range []api.UnitID{catalog.Remote, catalog.Devices, catalog.Alarms, catalog.Endpoints} {
		assert.True(t, services.ConsumerAPI.IsReady(id), "unit %s", id)
	}
}

func TestSessionWatcherReachesOrchestrator(t *testing.T) {
	srv := newHealthServer(t, http.StatusOK)
	settings := testSettings(t, srv.URL)
	settings.Session.Watch = true
	application, _ := newTestApplication(t, settings)
	services := application.Services()

	require.NoError(t, os.WriteFile(settings.Session.TokenFile, []byte(`{"access_token":"abc"}`), 0600))
	require.NoError(t, services.Watcher.Start())
	defer services.Watcher.Stop()

	assert.True(t, services.ConsumerAPI.IsReady(catalog.Session))

	require.NoError(t, os.Remove(settings.Session.TokenFile))
	assert.Eventually(t, func() bool {
		return !services.ConsumerAPI.IsReady(catalog.Session)
	}, 5*time.Second, 10*time.Millisecond)
}

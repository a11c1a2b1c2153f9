package app_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-attendance-admin/gateway"
	"github.com/jrsteele09/go-attendance-admin/internal/app"
	"github.com/jrsteele09/go-attendance-admin/internal/config"
	"github.com/jrsteele09/go-attendance-admin/server"
	"github.com/jrsteele09/go-attendance-admin/sessions"
	"github.com/jrsteele09/go-attendance-admin/tokenstore/kvfake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Admin1234"
)

// setupTestEnv starts a development API and points the client config at it
func setupTestEnv(t *testing.T, store string) config.Config {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SEED_ADMIN_EMAIL", adminEmail)
	t.Setenv("SEED_ADMIN_PASSWORD", adminPassword)

	serverConfig, err := config.FromEnv()
	require.NoError(t, err)
	srv, err := server.New(serverConfig, server.NewInMemoryRepos(), server.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	httpServer := httptest.NewServer(srv)
	t.Cleanup(httpServer.Close)

	t.Setenv("API_BASE_URL", httpServer.URL)
	t.Setenv("SESSION_STORE", store)
	t.Setenv("FOLDER", t.TempDir())
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")
	t.Setenv("REDIS_RETRY_ATTEMPTS", "1")
	t.Setenv("REDIS_RETRY_INTERVAL", "1ms")
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	return cfg
}

func newApp(t *testing.T, cfg config.Config, opts ...app.Option) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), cfg, append([]app.Option{app.WithLogger(zerolog.Nop())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestFileSessionSurvivesRestart(t *testing.T) {
	cfg := setupTestEnv(t, config.StoreBackendFile)
	ctx := context.Background()

	first := newApp(t, cfg)
	require.False(t, first.Sessions.IsAuthenticated())
	_, err := first.Auth.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newApp(t, cfg)
	require.True(t, second.Sessions.IsAuthenticated())
	require.Equal(t, first.Sessions.AccessToken(), second.Sessions.AccessToken())

	user, err := second.Auth.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, adminEmail, user.Email)
}

func TestClientsShareTheSession(t *testing.T) {
	cfg := setupTestEnv(t, config.StoreBackendMemory)
	ctx := context.Background()
	backend := kvfake.NewFakeBackend()
	registry := prometheus.NewRegistry()

	var events []string
	a := newApp(t, cfg,
		app.WithBackend(backend),
		app.WithRegisterer(registry),
		app.WithObserver(func(event sessions.Event, _ sessions.Session) {
			events = append(events, event.String())
		}),
	)

	_, err := a.Auth.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.NotEmpty(t, backend.Snapshot())

	admins, err := a.Admins.List(ctx, gateway.PageQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, admins.Total)

	overview, err := a.Dashboard.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, overview.Employees)

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	require.Contains(t, names, "attendance_gateway_requests_total")
	require.Contains(t, events, "loginSuccess")
}

func TestUnknownSessionStore(t *testing.T) {
	cfg := setupTestEnv(t, "floppy")
	_, err := app.New(context.Background(), cfg, app.WithLogger(zerolog.Nop()))
	require.ErrorContains(t, err, `unknown session store "floppy"`)
}

func TestUnreachableRedis(t *testing.T) {
	cfg := setupTestEnv(t, config.StoreBackendRedis)
	_, err := app.New(context.Background(), cfg, app.WithLogger(zerolog.Nop()))
	require.ErrorContains(t, err, "redis PING")
}

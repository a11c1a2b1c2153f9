package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-attendance-admin/gateway"
	"github.com/jrsteele09/go-attendance-admin/sessions"
	"github.com/jrsteele09/go-attendance-admin/tokenstore"
	"github.com/jrsteele09/go-attendance-admin/tokenstore/kvfake"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const refreshPath = "/api/v1/auth/refresh-token"

type testFixture struct {
	server   *httptest.Server
	mux      *http.ServeMux
	backend  *kvfake.FakeBackend
	store    *tokenstore.Store
	manager  *sessions.Manager
	now      time.Time
	lock     sync.Mutex
	events   []string
	refreshN atomic.Int32
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		mux:     http.NewServeMux(),
		backend: kvfake.NewFakeBackend(),
		now:     time.UnixMilli(1000),
	}
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)

	clock := func() time.Time { return f.now }
	store, err := tokenstore.New(f.backend, tokenstore.WithNowTime(clock), tokenstore.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	f.store = store

	manager, err := sessions.NewManager(store,
		sessions.WithNowTime(clock),
		sessions.WithLogger(zerolog.Nop()),
		sessions.WithObserver(func(e sessions.Event, _ sessions.Session) {
			f.lock.Lock()
			defer f.lock.Unlock()
			f.events = append(f.events, e.String())
		}),
	)
	require.NoError(t, err)
	f.manager = manager

	ctx := context.Background()
	_, err = manager.Dispatch(ctx, sessions.LoginStart{})
	require.NoError(t, err)
	_, err = manager.Dispatch(ctx, sessions.LoginSuccess{
		User:         users.User{ID: "u-1", Email: "a@b.com"},
		AccessToken:  "A1",
		RefreshToken: "R1",
		ExpiresIn:    3600,
	})
	require.NoError(t, err)
	f.events = nil
	return f
}

func (f *testFixture) gateway(t *testing.T, opts ...gateway.Option) *gateway.Gateway {
	t.Helper()
	opts = append([]gateway.Option{gateway.WithLogger(zerolog.Nop()), gateway.WithRefreshPath(refreshPath)}, opts...)
	g, err := gateway.New(f.server.URL, f.manager, opts...)
	require.NoError(t, err)
	return g
}

func (f *testFixture) count(event string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

// handleRefresh answers refresh calls with token A2, or with status when it is not 200
func (f *testFixture) handleRefresh(status int, wait func()) {
	f.mux.HandleFunc("POST "+refreshPath, func(w http.ResponseWriter, r *http.Request) {
		f.refreshN.Add(1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if wait != nil {
			wait()
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK || body.RefreshToken != "R1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"refresh token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"accessToken":"A2","expiresIn":3600}`))
	})
}

// handleUsers rejects token A1 and accepts A2
func (f *testFixture) handleUsers(onReject func()) *atomic.Int32 {
	hits := &atomic.Int32{}
	f.mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer A2" {
			if onReject != nil {
				onReject()
			}
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"jwt expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"users":[{"_id":"e-1","email":"e@x.com"}],"total":1}`))
	})
	return hits
}

func TestExecute_RefreshesOnceAndRetries(t *testing.T) {
	f := setupTestFixture(t)
	f.handleRefresh(http.StatusOK, nil)
	hits := f.handleUsers(nil)
	reg := prometheus.NewRegistry()
	g := f.gateway(t, gateway.WithMetrics(reg))

	resp, err := g.Execute(context.Background(), gateway.Get("/users", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "e@x.com")

	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, int32(1), f.refreshN.Load())
	require.Equal(t, 1, f.count("refreshSuccess"))
	require.Equal(t, "A2", f.manager.AccessToken())
	require.Equal(t, "R1", f.manager.RefreshToken())

	record := f.store.Load(context.Background())
	require.NotNil(t, record)
	require.Equal(t, "A2", record.AccessToken)

	expected := `
# HELP attendance_gateway_refreshes_total Access token refreshes, by result. shared counts callers that joined an in-flight refresh.
# TYPE attendance_gateway_refreshes_total counter
attendance_gateway_refreshes_total{result="success"} 1
# HELP attendance_gateway_requests_total API calls made through the gateway, by final outcome.
# TYPE attendance_gateway_requests_total counter
attendance_gateway_requests_total{outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"attendance_gateway_requests_total", "attendance_gateway_refreshes_total"))
}

func TestExecute_RefreshFailureLogsOut(t *testing.T) {
	f := setupTestFixture(t)
	f.handleRefresh(http.StatusUnauthorized, nil)
	f.handleUsers(nil)
	g := f.gateway(t)

	resp, err := g.Execute(context.Background(), gateway.Get("/users", nil))
	require.Nil(t, resp)
	require.ErrorIs(t, err, gateway.ErrRefreshFailed)

	var statusErr *gateway.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, refreshPath, statusErr.Path)
	require.Equal(t, "refresh token expired", statusErr.Message)

	require.False(t, f.manager.IsAuthenticated())
	require.Nil(t, f.store.Load(context.Background()))
	require.Empty(t, f.backend.Snapshot())
	require.Equal(t, 1, f.count("refreshFailure"))
	require.Equal(t, 1, f.count("logout"))
}

func TestExecute_RetryIsNotRepeated(t *testing.T) {
	f := setupTestFixture(t)
	f.handleRefresh(http.StatusOK, nil)
	hits := &atomic.Int32{}
	f.mux.HandleFunc("GET /always-401", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	g := f.gateway(t)

	resp, err := g.Execute(context.Background(), gateway.Get("/always-401", nil))
	require.True(t, gateway.IsUnauthorized(err))
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, int32(1), f.refreshN.Load())
	require.True(t, f.manager.IsAuthenticated())
}

func TestExecute_NonUnauthorizedPassesThrough(t *testing.T) {
	f := setupTestFixture(t)
	f.handleRefresh(http.StatusOK, nil)
	var received http.Header
	f.mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"shortDesc is required"}`))
	})
	g := f.gateway(t)

	resp, err := g.Execute(context.Background(), gateway.Post("/tasks", map[string]string{"description": "x"}))
	require.NotNil(t, resp)
	require.True(t, gateway.IsStatus(err, http.StatusBadRequest))
	var statusErr *gateway.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, "shortDesc is required", statusErr.Message)
	require.Zero(t, f.refreshN.Load())

	require.Equal(t, "Bearer A1", received.Get("Authorization"))
	require.Equal(t, "application/json", received.Get("Content-Type"))
	require.NotEmpty(t, received.Get(gateway.RequestIDHeader))
}

func TestExecute_TransportErrorPassesThrough(t *testing.T) {
	f := setupTestFixture(t)
	g := f.gateway(t)
	f.server.Close()

	_, err := g.Execute(context.Background(), gateway.Get("/users", nil))
	require.Error(t, err)
	require.NotErrorIs(t, err, gateway.ErrRefreshFailed)
	require.True(t, f.manager.IsAuthenticated())
}

// fakeSession is a signed-in session without a refresh token
type fakeSession struct {
	lock   sync.Mutex
	events []string
}

func (s *fakeSession) AccessToken() string               { return "A1" }
func (s *fakeSession) RefreshToken() string              { return "" }
func (s *fakeSession) NeedsRefresh(_ time.Duration) bool { return false }
func (s *fakeSession) Dispatch(_ context.Context, e sessions.Event) (sessions.Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.events = append(s.events, e.String())
	return sessions.Anonymous(), nil
}

func TestExecute_NoRefreshTokenLogsOut(t *testing.T) {
	f := setupTestFixture(t)
	f.handleUsers(nil)
	session := &fakeSession{}
	g, err := gateway.New(f.server.URL, session, gateway.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = g.Execute(context.Background(), gateway.Get("/users", nil))
	require.ErrorIs(t, err, gateway.ErrNoRefreshToken)
	require.True(t, gateway.IsUnauthorized(err))
	require.Equal(t, []string{"logout"}, session.events)
}

// barrier releases once n callers have arrived, or after a timeout
func barrier(n int32) (arrive func(), wait func()) {
	var arrived atomic.Int32
	done := make(chan struct{})
	var once sync.Once
	arrive = func() {
		if arrived.Add(1) == n {
			once.Do(func() { close(done) })
		}
	}
	wait = func() {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
	return arrive, wait
}

func runConcurrently(t *testing.T, g *gateway.Gateway, n int) {
	t.Helper()
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Execute(context.Background(), gateway.Get("/users", nil))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestExecute_CoalescesConcurrentRefreshes(t *testing.T) {
	const callers = 8
	f := setupTestFixture(t)
	arrive, wait := barrier(callers)
	f.handleRefresh(http.StatusOK, wait)
	f.handleUsers(arrive)
	reg := prometheus.NewRegistry()
	g := f.gateway(t, gateway.WithMetrics(reg))

	runConcurrently(t, g, callers)

	require.Equal(t, int32(1), f.refreshN.Load())
	require.Equal(t, 1, f.count("refreshSuccess"))
	require.Equal(t, "A2", f.manager.AccessToken())

	expected := `
# HELP attendance_gateway_refreshes_total Access token refreshes, by result. shared counts callers that joined an in-flight refresh.
# TYPE attendance_gateway_refreshes_total counter
attendance_gateway_refreshes_total{result="shared"} 7
attendance_gateway_refreshes_total{result="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "attendance_gateway_refreshes_total"))
}

func TestExecute_CancelledCallerStopsWaitingForRefresh(t *testing.T) {
	f := setupTestFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.handleRefresh(http.StatusOK, func() {
		once.Do(func() { close(started) })
		<-release
	})
	f.handleUsers(nil)
	g := f.gateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := g.Execute(ctx, gateway.Get("/users", nil))
		errs <- err
	}()

	<-started
	cancel()
	select {
	case err := <-errs:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Execute still blocked after its context was cancelled")
	}

	close(release)
	require.Eventually(t, func() bool { return f.count("refreshSuccess") == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, "A2", f.manager.AccessToken())
}

func TestExecute_WithoutCoalescingEachCallRefreshes(t *testing.T) {
	const callers = 4
	f := setupTestFixture(t)
	arrive, wait := barrier(callers)
	f.handleRefresh(http.StatusOK, wait)
	f.handleUsers(arrive)
	g := f.gateway(t, gateway.WithCoalescedRefresh(false))

	runConcurrently(t, g, callers)

	require.Equal(t, int32(callers), f.refreshN.Load())
	require.Equal(t, callers, f.count("refreshSuccess"))
}

func TestExecute_ExpiryBufferRefreshesBeforeDispatch(t *testing.T) {
	f := setupTestFixture(t)
	f.handleRefresh(http.StatusOK, nil)
	hits := f.handleUsers(nil)
	g := f.gateway(t, gateway.WithExpiryBuffer(5*time.Minute))

	f.now = time.UnixMilli(1000 + 3600_000 - 60_000)
	resp, err := g.Execute(context.Background(), gateway.Get("/users", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), hits.Load())
	require.Equal(t, int32(1), f.refreshN.Load())
}

func TestCall_DecodesResponse(t *testing.T) {
	f := setupTestFixture(t)
	f.handleRefresh(http.StatusOK, nil)
	f.handleUsers(nil)
	g := f.gateway(t)

	type usersPage struct {
		Users []users.Employee `json:"users"`
		Total int              `json:"total"`
	}
	page, err := gateway.Call[usersPage](context.Background(), g, gateway.Get("/users", nil))
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "e-1", page.Users[0].ID)
}

func TestNew_Validation(t *testing.T) {
	_, err := gateway.New("", &fakeSession{})
	require.Error(t, err)
	_, err = gateway.New("http://localhost", nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, gateway.ErrRefreshFailed))
}

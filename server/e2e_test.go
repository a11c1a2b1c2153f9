package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-attendance-admin/attendance"
	"github.com/jrsteele09/go-attendance-admin/auth"
	"github.com/jrsteele09/go-attendance-admin/dashboard"
	"github.com/jrsteele09/go-attendance-admin/gateway"
	"github.com/jrsteele09/go-attendance-admin/sessions"
	"github.com/jrsteele09/go-attendance-admin/tasks"
	"github.com/jrsteele09/go-attendance-admin/token/jwt"
	"github.com/jrsteele09/go-attendance-admin/tokenstore"
	"github.com/jrsteele09/go-attendance-admin/tokenstore/kvfake"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/jrsteele09/go-attendance-admin/users/usersapi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type clientFixture struct {
	*testFixture
	manager *sessions.Manager
	gateway *gateway.Gateway
	auth    *auth.Service
}

func setupClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	f := setupTestFixture(t)

	store, err := tokenstore.New(kvfake.NewFakeBackend(), tokenstore.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	manager, err := sessions.NewManager(store, sessions.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	gw, err := gateway.New(f.http.URL, manager, gateway.WithRefreshPath(auth.RefreshTokenPath), gateway.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	service, err := auth.NewService(gw, manager)
	require.NoError(t, err)

	return &clientFixture{testFixture: f, manager: manager, gateway: gw, auth: service}
}

// expireAccessTokens moves the token clock past the access token lifetime
func expireAccessTokens(t *testing.T) {
	t.Helper()
	later := time.Now().Add(time.Hour)
	jwt.NowTimeFunc = func() time.Time { return later }
	t.Cleanup(func() { jwt.NowTimeFunc = time.Now })
}

func TestExpiredAccessTokenIsRefreshedSilently(t *testing.T) {
	f := setupClientFixture(t)
	ctx := context.Background()

	user, err := f.auth.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.True(t, user.IsAdmin())
	staleToken := f.manager.AccessToken()
	staleRefresh := f.manager.RefreshToken()

	expireAccessTokens(t)

	list, err := usersapi.NewClient(f.gateway).List(ctx, gateway.PageQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 0, list.Total)

	require.True(t, f.manager.IsAuthenticated())
	require.NotEqual(t, staleToken, f.manager.AccessToken())
	require.Equal(t, staleRefresh, f.manager.RefreshToken())
}

func TestRevokedRefreshTokenLogsOut(t *testing.T) {
	f := setupClientFixture(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	// a second sign in replaces the refresh token held by this session
	f.login(t, adminEmail, adminPassword)
	expireAccessTokens(t)

	_, err = usersapi.NewClient(f.gateway).List(ctx, gateway.PageQuery{Page: 1, Limit: 10})
	require.ErrorIs(t, err, gateway.ErrRefreshFailed)
	require.False(t, f.manager.IsAuthenticated())
}

func TestClientsAgainstServer(t *testing.T) {
	f := setupClientFixture(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	employees := usersapi.NewClient(f.gateway)
	employee, err := employees.Create(ctx, users.CreateEmployeeRequest{
		Email:        "staff@example.com",
		Password:     staffPassword,
		Name:         "Staff Member",
		Designation:  "Engineer",
		WorkingHours: users.WorkingHours{PunchIn: users.TimeWindow{From: "00:00", To: "23:59"}, PunchOut: users.TimeWindow{From: "00:00", To: "23:59"}},
	})
	require.NoError(t, err)

	taskClient, err := tasks.NewClient(f.gateway)
	require.NoError(t, err)
	task, err := taskClient.Create(ctx, tasks.CreateRequest{
		ToUserID:    employee.ID,
		ShortDesc:   "Inventory",
		Description: "Count the stock room",
		TimeAndDate: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	t.Run("board move persists", func(t *testing.T) {
		board, err := tasks.NewBoard(taskClient, []tasks.Task{*task})
		require.NoError(t, err)
		require.NoError(t, board.Move(ctx, task.ID, string(tasks.StatusCompleted)))

		stored, err := taskClient.Get(ctx, task.ID)
		require.NoError(t, err)
		require.Equal(t, tasks.StatusCompleted, stored.Status())
	})

	attendanceClient, err := attendance.NewClient(f.gateway)
	require.NoError(t, err)
	coordinate, err := attendanceClient.CreateCoordinate(ctx, attendance.CoordinateRequest{
		Desc: "Head office", Latitude: 51.5007, Longitude: -0.1246, Radius: 100,
	})
	require.NoError(t, err)

	t.Run("punch", func(t *testing.T) {
		face, err := attendance.EncodeFaceImage(pngHeader)
		require.NoError(t, err)
		req := attendance.PunchRequest{
			UserID:                 employee.ID,
			AttendanceCoordinateID: coordinate.ID,
			FaceImage:              face,
			UserLocation:           attendance.Location{Latitude: 51.5101, Longitude: -0.1340},
			PunchType:              attendance.PunchIn,
		}
		_, err = attendanceClient.Punch(ctx, coordinate, req)
		require.ErrorIs(t, err, attendance.ErrOutsideGeofence)

		req.UserLocation = attendance.Location{Latitude: 51.5010, Longitude: -0.1245}
		record, err := attendanceClient.Punch(ctx, coordinate, req)
		require.NoError(t, err)
		require.Equal(t, attendance.StatusPresent, record.Status)
	})

	t.Run("dashboard", func(t *testing.T) {
		loader, err := dashboard.NewLoader(employees, taskClient, attendanceClient)
		require.NoError(t, err)
		overview, err := loader.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, overview.Employees)
		require.Equal(t, 1, overview.Coordinates)
		require.Equal(t, 1, overview.Tasks)
		require.Equal(t, 1, overview.TasksByStatus[tasks.StatusCompleted])
		require.Equal(t, 1, overview.Attendance.TotalDays)
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, f.auth.Logout(ctx))
		require.False(t, f.manager.IsAuthenticated())
	})
}

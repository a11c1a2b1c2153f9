package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteAPIPrefix = "/api/v1"

	// Auth Routes
	RouteAuthLogin          = RouteAPIPrefix + "/auth/login"
	RouteAuthRegister       = RouteAPIPrefix + "/auth/register"
	RouteAuthRefreshToken   = RouteAPIPrefix + "/auth/refresh-token"
	RouteAuthLogout         = RouteAPIPrefix + "/auth/logout"
	RouteAuthProfile        = RouteAPIPrefix + "/auth/profile"
	RouteAuthChangePassword = RouteAPIPrefix + "/auth/change-password"
	RouteAuthForgotPassword = RouteAPIPrefix + "/auth/forgot-password"
	RouteAuthResetPassword  = RouteAPIPrefix + "/auth/reset-password"

	// Employee and Admin Routes
	RouteUsers  = RouteAPIPrefix + "/users"
	RouteUser   = RouteUsers + "/{id}"
	RouteAdmins = RouteAPIPrefix + "/admins"
	RouteAdmin  = RouteAdmins + "/{id}"

	// Task Routes
	RouteTasks      = RouteAPIPrefix + "/tasks"
	RouteTask       = RouteTasks + "/{id}"
	RouteTaskStatus = RouteTask + "/status"

	// Attendance Routes
	RouteCoordinates     = RouteAPIPrefix + "/attendance-coordinates"
	RouteCoordinate      = RouteCoordinates + "/{id}"
	RouteAttendances     = RouteAPIPrefix + "/attendances"
	RouteAttendance      = RouteAttendances + "/{id}"
	RouteAttendancePunch = RouteAttendances + "/punch"
	RouteAttendanceStats = RouteAttendances + "/stats"

	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)

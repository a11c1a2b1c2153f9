// Package auth signs users in and out of the attendance API and keeps the
// local session in step with the server.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-attendance-admin/gateway"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/sessions"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/rs/zerolog/log"
)

// DefaultExpiresIn is assumed when a login response carries neither
// expiresIn nor a readable exp claim
const DefaultExpiresIn int64 = 3600

// SessionManager is the session container the service drives.
// *sessions.Manager satisfies it.
type SessionManager interface {
	Dispatch(ctx context.Context, event sessions.Event) (sessions.Session, error)
	Initialize(ctx context.Context) (sessions.Session, error)
	Snapshot() sessions.Session
	IsAuthenticated() bool
}

type Service struct {
	gateway *gateway.Gateway
	session SessionManager
	nowTime func() time.Time
}

type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(gw *gateway.Gateway, session SessionManager, opts ...Option) (*Service, error) {
	if gw == nil {
		return nil, errors.New("[auth.NewService] gateway is required")
	}
	if session == nil {
		return nil, errors.New("[auth.NewService] session is required")
	}
	s := &Service{
		gateway: gw,
		session: session,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Bootstrap restores a stored session at process start
func (s *Service) Bootstrap(ctx context.Context) (sessions.Session, error) {
	session, err := s.session.Initialize(ctx)
	if err != nil {
		return session, fmt.Errorf("[Service.Bootstrap] %w", err)
	}
	return session, nil
}

// Login exchanges credentials for a session. A failed login leaves the
// session anonymous with Error set to the server's message.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, error) {
	if err := ValidateUserCredentials(email, password); err != nil {
		return nil, err
	}
	if _, err := s.session.Dispatch(ctx, sessions.LoginStart{}); err != nil {
		return nil, fmt.Errorf("[Service.Login] %w", err)
	}
	return s.authenticate(ctx, gateway.Post(LoginPath, LoginRequest{Email: email, Password: password}))
}

// Register creates an account and signs it in. When the register response
// carries no tokens the new credentials are used to log in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*users.User, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}
	if _, err := s.session.Dispatch(ctx, sessions.LoginStart{}); err != nil {
		return nil, fmt.Errorf("[Service.Register] %w", err)
	}

	resp, err := gateway.CallPublic[LoginResponse](ctx, s.gateway, gateway.Post(RegisterPath, req))
	if err != nil {
		return nil, s.loginFailed(ctx, "[Service.Register]", err)
	}
	if resp.AccessToken == "" {
		return s.authenticate(ctx, gateway.Post(LoginPath, LoginRequest{Email: req.Email, Password: req.Password}))
	}
	return s.completeLogin(ctx, resp)
}

func (s *Service) authenticate(ctx context.Context, req gateway.Request) (*users.User, error) {
	resp, err := gateway.CallPublic[LoginResponse](ctx, s.gateway, req)
	if err != nil {
		return nil, s.loginFailed(ctx, "[Service.Login]", err)
	}
	return s.completeLogin(ctx, resp)
}

func (s *Service) completeLogin(ctx context.Context, resp *LoginResponse) (*users.User, error) {
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, s.loginFailed(ctx, "[Service.Login]", InvalidLoginResponseErr)
	}
	session, err := s.session.Dispatch(ctx, sessions.LoginSuccess{
		User:         resp.User,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    s.expiresIn(resp),
		TokenType:    resp.TokenType,
		UserType:     resp.UserType,
	})
	if err != nil {
		return nil, s.loginFailed(ctx, "[Service.Login]", err)
	}
	return session.User, nil
}

func (s *Service) loginFailed(ctx context.Context, op string, cause error) error {
	if gateway.IsUnauthorized(cause) {
		cause = fmt.Errorf("%w: %w", InvalidCredentialsErr, cause)
	}
	if _, err := s.session.Dispatch(ctx, sessions.LoginFailure{Message: Message(cause)}); err != nil {
		log.Debug().Err(err).Msg(op + " loginFailure rejected")
	}
	return fmt.Errorf("%s %w", op, cause)
}

// expiresIn falls back to the access token's exp claim when the response
// has no lifetime. The token is not verified; the server does that.
func (s *Service) expiresIn(resp *LoginResponse) int64 {
	if resp.ExpiresIn > 0 {
		return resp.ExpiresIn
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, claims); err != nil {
		log.Warn().Err(err).Msg("[Service.Login] no expiresIn and access token is not a JWT, using default lifetime")
		return DefaultExpiresIn
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		log.Warn().Msg("[Service.Login] no expiresIn and no exp claim, using default lifetime")
		return DefaultExpiresIn
	}
	remaining := int64(exp.Sub(s.nowTime()).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Logout tells the server to invalidate the session and clears it locally
// whatever the server says.
func (s *Service) Logout(ctx context.Context) error {
	if s.session.IsAuthenticated() {
		if _, err := s.gateway.Execute(ctx, gateway.Post(LogoutPath, nil)); err != nil {
			log.Warn().Err(err).Msg("[Service.Logout] server logout failed, clearing local session anyway")
		}
	}
	if _, err := s.session.Dispatch(ctx, sessions.Logout{}); err != nil {
		return fmt.Errorf("[Service.Logout] %w", err)
	}
	return nil
}

// Profile fetches the signed-in user's profile from the server
func (s *Service) Profile(ctx context.Context) (*users.User, error) {
	if !s.session.IsAuthenticated() {
		return nil, NotAuthenticatedErr
	}
	resp, err := gateway.Call[ProfileResponse](ctx, s.gateway, gateway.Get(ProfilePath, nil))
	if err != nil {
		return nil, fmt.Errorf("[Service.Profile] %w", err)
	}
	return &resp.User, nil
}

// UpdateProfile saves profile changes and merges the result into the session
func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*users.User, error) {
	if !s.session.IsAuthenticated() {
		return nil, NotAuthenticatedErr
	}
	resp, err := gateway.Call[ProfileResponse](ctx, s.gateway, gateway.Put(ProfilePath, req))
	if err != nil {
		return nil, fmt.Errorf("[Service.UpdateProfile] %w", err)
	}
	patch := resp.User
	if patch.ID == "" {
		patch = users.User{Name: req.Name, Email: req.Email, Avatar: req.Avatar}
	}
	session, err := s.session.Dispatch(ctx, sessions.UpdateUser{Patch: patch})
	if err != nil {
		return nil, fmt.Errorf("[Service.UpdateProfile] %w", err)
	}
	return session.User, nil
}

func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error) {
	if err := ValidatePasswordChange(req); err != nil {
		return "", err
	}
	resp, err := gateway.Call[MessageResponse](ctx, s.gateway, gateway.Post(ChangePasswordPath, req))
	if err != nil {
		return "", fmt.Errorf("[Service.ChangePassword] %w", err)
	}
	return resp.Message, nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperrors.Validationf("email is required")
	}
	resp, err := gateway.CallPublic[MessageResponse](ctx, s.gateway, gateway.Post(ForgotPasswordPath, ForgotPasswordRequest{Email: email}))
	if err != nil {
		return "", fmt.Errorf("[Service.ForgotPassword] %w", err)
	}
	return resp.Message, nil
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	if req.Token == "" {
		return "", apperrors.Validationf("reset token is required")
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return "", apperrors.Validationf("%s", err)
	}
	resp, err := gateway.CallPublic[MessageResponse](ctx, s.gateway, gateway.Post(ResetPasswordPath, req))
	if err != nil {
		return "", fmt.Errorf("[Service.ResetPassword] %w", err)
	}
	return resp.Message, nil
}

// Message returns the text to show a user for err, preferring the server's
// own message.
func Message(err error) string {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	if errors.As(err, &statusErr) {
		return http.StatusText(statusErr.StatusCode)
	}
	return err.Error()
}

package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jrsteele09/go-attendance-admin/auth"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/users"
)

const (
	tokenTypeBearer     = "Bearer"
	passwordResetExpiry = time.Hour
	forgotPasswordReply = "If the email is registered, a reset link has been sent"
)

type passwordReset struct {
	userID    string
	expiresAt time.Time
}

// LoginHandler exchanges email and password for an access and refresh token
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := auth.ValidateUserCredentials(req.Email, req.Password); err != nil {
			s.writeErr(w, r, err)
			return
		}

		account, err := s.repos.Users.GetByEmail(strings.TrimSpace(req.Email))
		if err != nil || !users.CheckPasswordHash(req.Password, account.PasswordHash) {
			s.metrics.logins.WithLabelValues("failure").Inc()
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}

		resp, err := s.issueTokens(account, "Login successful")
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		s.metrics.logins.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, resp)
	}
}

// RegisterHandler creates an employee account and signs it in
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := auth.ValidateRegistration(req); err != nil {
			s.writeErr(w, r, err)
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		now := NowTimeFunc().UTC()
		account := &users.Account{
			Employee: users.Employee{
				Email:        strings.TrimSpace(req.Email),
				Name:         strings.TrimSpace(req.Name),
				Role:         users.RoleEmployee,
				WorkingHours: DefaultWorkingHours,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			PasswordHash: hash,
		}
		if err := s.repos.Users.Upsert(account); err != nil {
			s.writeErr(w, r, err)
			return
		}

		resp, err := s.issueTokens(account, "Registration successful")
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (s *Server) issueTokens(account *users.Account, message string) (*auth.LoginResponse, error) {
	access, err := s.tokens.CreateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("[Server.issueTokens] %w", err)
	}
	refreshToken, err := s.refresh.Create(account.ID)
	if err != nil {
		return nil, fmt.Errorf("[Server.issueTokens] %w", err)
	}
	return &auth.LoginResponse{
		Message:      message,
		User:         account.SessionProfile(),
		UserType:     string(account.Role),
		AccessToken:  access.Token,
		RefreshToken: refreshToken,
		ExpiresIn:    access.ExpiresIn,
		TokenType:    tokenTypeBearer,
	}, nil
}

// RefreshTokenHandler issues a new access token for a valid refresh token.
// The refresh token itself is not rotated.
func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RefreshTokenRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "refreshToken is required")
			return
		}

		stored, err := s.refresh.Validate(req.RefreshToken)
		if err != nil {
			s.metrics.refreshes.WithLabelValues("rejected").Inc()
			s.writeErr(w, r, err)
			return
		}
		account, err := s.repos.Users.GetByID(stored.UserID)
		if err != nil {
			// the account was deleted after the token was issued
			_ = s.refresh.Delete(req.RefreshToken)
			s.metrics.refreshes.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusUnauthorized, apperrors.ErrInvalidRefreshToken.Error())
			return
		}

		access, err := s.tokens.CreateAccessToken(account)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		s.metrics.refreshes.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, auth.RefreshTokenResponse{
			AccessToken: access.Token,
			ExpiresIn:   access.ExpiresIn,
		})
	}
}

// LogoutHandler revokes the presented access token and the user's refresh token
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			s.writeErr(w, r, apperrors.ErrNotAuthenticated)
			return
		}
		if claims.ExpiresAt != nil {
			_ = s.revoked.Add(claims.ID, claims.ExpiresAt.Time)
		}
		s.refresh.RevokeUser(claims.Subject)
		writeMessage(w, http.StatusOK, "Logged out successfully")
	}
}

func (s *Server) currentAccount(r *http.Request) (*users.Account, error) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	return s.repos.Users.GetByID(claims.Subject)
}

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := s.currentAccount(r)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, auth.ProfileResponse{User: account.SessionProfile()})
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		account, err := s.currentAccount(r)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}

		updated := *account
		if req.Email != "" {
			if _, err := mail.ParseAddress(req.Email); err != nil {
				s.writeErr(w, r, apperrors.Validationf("email %q is not a valid address", req.Email))
				return
			}
			updated.Email = req.Email
		}
		if name := strings.TrimSpace(req.Name); name != "" {
			updated.Name = name
		}
		if req.Avatar != "" {
			updated.Avatar = req.Avatar
		}
		updated.UpdatedAt = NowTimeFunc().UTC()
		if err := s.repos.Users.Upsert(&updated); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, auth.ProfileResponse{User: updated.SessionProfile()})
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ChangePasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := auth.ValidatePasswordChange(req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		account, err := s.currentAccount(r)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		// 400 rather than 401 so the client does not treat it as an expired session
		if !users.CheckPasswordHash(req.CurrentPassword, account.PasswordHash) {
			writeError(w, http.StatusBadRequest, "current password is incorrect")
			return
		}
		if err := s.setPassword(account, req.NewPassword); err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Password changed successfully")
	}
}

// ForgotPasswordHandler starts a password reset. The reply is the same
// whether or not the email is registered. There is no mailer, so in
// development the reset token is logged.
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ForgotPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			s.writeErr(w, r, apperrors.Validationf("email is required"))
			return
		}

		account, err := s.repos.Users.GetByEmail(strings.TrimSpace(req.Email))
		if err != nil {
			writeMessage(w, http.StatusOK, forgotPasswordReply)
			return
		}
		resetToken, err := s.createResetToken(account.ID)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		if s.env == "DEV" {
			s.logger.Info().Str("email", account.Email).Str("token", resetToken).Msg("[Server.ForgotPassword] password reset requested")
		}
		writeMessage(w, http.StatusOK, forgotPasswordReply)
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ResetPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if req.Token == "" {
			s.writeErr(w, r, apperrors.Validationf("token is required"))
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			s.writeErr(w, r, apperrors.Validationf("%s", err))
			return
		}

		userID, err := s.consumeResetToken(req.Token)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		account, err := s.repos.Users.GetByID(userID)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		if err := s.setPassword(account, req.Password); err != nil {
			s.writeErr(w, r, err)
			return
		}
		s.refresh.RevokeUser(account.ID)
		writeMessage(w, http.StatusOK, "Password has been reset")
	}
}

func (s *Server) setPassword(account *users.Account, password string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("[Server.setPassword] %w", err)
	}
	updated := *account
	updated.PasswordHash = hash
	updated.UpdatedAt = NowTimeFunc().UTC()
	return s.repos.Users.Upsert(&updated)
}

func (s *Server) createResetToken(userID string) (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[Server.createResetToken] %w", err)
	}
	resetToken := hex.EncodeToString(b)

	s.resetTokensLock.Lock()
	defer s.resetTokensLock.Unlock()
	s.resetTokens[resetToken] = passwordReset{userID: userID, expiresAt: NowTimeFunc().Add(passwordResetExpiry)}
	return resetToken, nil
}

// consumeResetToken returns the user a reset token was issued for. A token can be used once.
func (s *Server) consumeResetToken(resetToken string) (string, error) {
	s.resetTokensLock.Lock()
	defer s.resetTokensLock.Unlock()

	reset, ok := s.resetTokens[resetToken]
	if !ok {
		return "", errors.New("reset token is invalid")
	}
	delete(s.resetTokens, resetToken)
	if NowTimeFunc().After(reset.expiresAt) {
		return "", errors.New("reset token has expired")
	}
	return reset.userID, nil
}

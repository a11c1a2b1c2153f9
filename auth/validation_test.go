package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-attendance-admin/auth"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestValidateUserCredentials(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		require.NoError(t, auth.ValidateUserCredentials("user@example.com", "password123"))
	})

	t.Run("empty email", func(t *testing.T) {
		err := auth.ValidateUserCredentials("  ", "password123")
		require.ErrorIs(t, err, auth.MissingCredentialsErr)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("empty password", func(t *testing.T) {
		err := auth.ValidateUserCredentials("user@example.com", "")
		require.ErrorIs(t, err, auth.MissingCredentialsErr)
	})

	t.Run("invalid email format", func(t *testing.T) {
		err := auth.ValidateUserCredentials("userexample.com", "password123")
		require.ErrorIs(t, err, apperrors.ErrValidation)
		require.Contains(t, err.Error(), "invalid email format")
	})
}

func TestValidateRegistration(t *testing.T) {
	valid := auth.RegisterRequest{Email: "user@example.com", Password: "Password1", Name: "User"}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, auth.ValidateRegistration(valid))
	})

	t.Run("name required", func(t *testing.T) {
		req := valid
		req.Name = " "
		err := auth.ValidateRegistration(req)
		require.ErrorIs(t, err, apperrors.ErrValidation)
		require.Contains(t, err.Error(), "name is required")
	})

	t.Run("weak password", func(t *testing.T) {
		req := valid
		req.Password = "password"
		err := auth.ValidateRegistration(req)
		require.ErrorIs(t, err, apperrors.ErrValidation)
		require.Contains(t, err.Error(), "uppercase")
	})
}

func TestValidatePasswordChange(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, auth.ValidatePasswordChange(auth.ChangePasswordRequest{CurrentPassword: "Old12345", NewPassword: "New12345"}))
	})

	t.Run("current required", func(t *testing.T) {
		err := auth.ValidatePasswordChange(auth.ChangePasswordRequest{NewPassword: "New12345"})
		require.Contains(t, err.Error(), "current password is required")
	})

	t.Run("too short", func(t *testing.T) {
		err := auth.ValidatePasswordChange(auth.ChangePasswordRequest{CurrentPassword: "Old12345", NewPassword: "N1a"})
		require.Contains(t, err.Error(), "at least 8 characters")
	})

	t.Run("unchanged", func(t *testing.T) {
		err := auth.ValidatePasswordChange(auth.ChangePasswordRequest{CurrentPassword: "Same1234", NewPassword: "Same1234"})
		require.ErrorIs(t, err, auth.PasswordsMatchErr)
	})
}

package auth

import (
	"fmt"
	"net/mail"
	"strings"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/users"
)

// ValidateUserCredentials validates login credentials
func ValidateUserCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return fmt.Errorf("%w: %w", apperrors.ErrValidation, MissingCredentialsErr)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.Validationf("invalid email format")
	}
	return nil
}

// ValidateRegistration checks a sign up form before it is sent
func ValidateRegistration(req RegisterRequest) error {
	if err := ValidateUserCredentials(req.Email, req.Password); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.Validationf("name is required")
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return apperrors.Validationf("%s", err)
	}
	return nil
}

// ValidatePasswordChange checks the new password is strong and actually new
func ValidatePasswordChange(req ChangePasswordRequest) error {
	if req.CurrentPassword == "" {
		return apperrors.Validationf("current password is required")
	}
	if err := users.ValidatePasswordStrength(req.NewPassword); err != nil {
		return apperrors.Validationf("%s", err)
	}
	if req.CurrentPassword == req.NewPassword {
		return fmt.Errorf("%w: %w", apperrors.ErrValidation, PasswordsMatchErr)
	}
	return nil
}

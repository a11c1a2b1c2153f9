package auth

import "errors"

var (
	MissingCredentialsErr   = errors.New("email and password are required")
	InvalidCredentialsErr   = errors.New("invalid credentials")
	InvalidLoginResponseErr = errors.New("login response is missing tokens")
	NotAuthenticatedErr     = errors.New("not signed in")
	PasswordsMatchErr       = errors.New("new password must differ from the current password")
)

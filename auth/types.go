package auth

import "github.com/jrsteele09/go-attendance-admin/users"

const (
	LoginPath          = "/api/v1/auth/login"
	RegisterPath       = "/api/v1/auth/register"
	RefreshTokenPath   = "/api/v1/auth/refresh-token"
	LogoutPath         = "/api/v1/auth/logout"
	ProfilePath        = "/api/v1/auth/profile"
	ChangePasswordPath = "/api/v1/auth/change-password"
	ForgotPasswordPath = "/api/v1/auth/forgot-password"
	ResetPasswordPath  = "/api/v1/auth/reset-password"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by login and register. ExpiresIn is in seconds
// and may be omitted, in which case the access token's exp claim is used.
type LoginResponse struct {
	Message      string     `json:"message,omitempty"`
	User         users.User `json:"user"`
	UserType     string     `json:"userType,omitempty"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int64      `json:"expiresIn,omitempty"`
	TokenType    string     `json:"tokenType,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type UpdateProfileRequest struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type ProfileResponse struct {
	User users.User `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

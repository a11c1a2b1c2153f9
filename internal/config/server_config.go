package config

import (
	"fmt"
	"strings"
	"time"
)

// ServerConfig configures the development API server in cmd/mockapi
type ServerConfig interface {
	GetPort() string
	GetJWTSecret() string
	GetIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetSeedAdminEmail() string
	GetSeedAdminPassword() string
}

type Server struct {
	Port               string        `env:"PORT" envDefault:"5000"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	Issuer             string        `env:"JWT_ISSUER" envDefault:"attendance-mockapi"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
	RefreshTokenLength int           `env:"REFRESH_TOKEN_LENGTH" envDefault:"32"`
	SeedAdminEmail     string        `env:"SEED_ADMIN_EMAIL" envDefault:"admin@example.com"`
	SeedAdminPassword  string        `env:"SEED_ADMIN_PASSWORD" envDefault:"Admin1234"`
}

var _ ServerConfig = Server{}

func (s Server) GetPort() string {
	port := s.Port
	if port == "" {
		port = "5000"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (s Server) GetJWTSecret() string {
	return s.JWTSecret
}

func (s Server) GetIssuer() string {
	return s.Issuer
}

func (s Server) GetAccessTokenExpiry() time.Duration {
	return s.AccessTokenExpiry
}

func (s Server) GetRefreshTokenExpiry() time.Duration {
	return s.RefreshTokenExpiry
}

func (s Server) GetRefreshTokenLength() int {
	return s.RefreshTokenLength // 32 bytes = 256 bits
}

func (s Server) GetSeedAdminEmail() string {
	return s.SeedAdminEmail
}

func (s Server) GetSeedAdminPassword() string {
	return s.SeedAdminPassword
}

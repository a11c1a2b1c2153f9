package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetRefreshPath() string
}

type API struct {
	BaseURL        string        `env:"API_BASE_URL" envDefault:"http://localhost:5000"`
	RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"30s"`
	RefreshPath    string        `env:"API_REFRESH_PATH" envDefault:"/api/v1/auth/refresh-token"`
}

var _ APIConfig = API{}

// GetBaseURL returns the remote API root without a trailing slash (e.g. "http://localhost:5000")
func (a API) GetBaseURL() string {
	return strings.TrimRight(a.BaseURL, "/")
}

func (a API) GetRequestTimeout() time.Duration {
	return a.RequestTimeout
}

func (a API) GetRefreshPath() string {
	return a.RefreshPath
}

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	ServerConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFile() string
	IsDev() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	API
	Session
	Server
	Cors
}

// New loads a .env file from the working directory (if present) and then
// parses the environment into the configuration.
func New() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("[config.New] godotenv.Load: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment only, without reading .env
func FromEnv() (Config, error) {
	c := mainConfig{}
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config.FromEnv] env.Parse: %w", err)
	}
	c.Cors.origins = newAllowedOrigins(c.Cors.AllowedOrigins)
	return c, nil
}

// MustNew is New that panics on failure, for use in main
func MustNew() Config {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

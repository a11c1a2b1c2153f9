// Package server is a development implementation of the attendance admin
// REST API. It serves the same routes the client packages call, backed by
// in-memory repositories, so the client can be exercised end to end without
// the production backend.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-attendance-admin/attendance"
	"github.com/jrsteele09/go-attendance-admin/internal/config"
	"github.com/jrsteele09/go-attendance-admin/tasks"
	"github.com/jrsteele09/go-attendance-admin/token"
	"github.com/jrsteele09/go-attendance-admin/token/jwt"
	"github.com/jrsteele09/go-attendance-admin/token/keys"
	"github.com/jrsteele09/go-attendance-admin/token/refresh"
	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const signingKeyID = "mockapi"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type Repos struct {
	Users         users.Repo
	RefreshTokens refresh.Repo
	Tasks         tasks.Repo
	Coordinates   attendance.CoordinateRepo
	Records       attendance.RecordRepo
}

func (r Repos) validate() error {
	switch {
	case r.Users == nil:
		return errors.New("users repo is required")
	case r.RefreshTokens == nil:
		return errors.New("refresh token repo is required")
	case r.Tasks == nil:
		return errors.New("tasks repo is required")
	case r.Coordinates == nil:
		return errors.New("coordinates repo is required")
	case r.Records == nil:
		return errors.New("records repo is required")
	}
	return nil
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	repos   Repos
	logger  zerolog.Logger

	registry *prometheus.Registry
	metrics  *serverMetrics

	tokens  *jwt.Creator
	refresh *refresh.Manager
	revoked token.RevokedTokenCache

	resetTokens     map[string]passwordReset
	resetTokensLock sync.Mutex
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(config config.Config, repos Repos, opts ...Option) (*Server, error) {
	if config == nil {
		return nil, errors.New("[server.New] config is required")
	}
	if err := repos.validate(); err != nil {
		return nil, fmt.Errorf("[server.New] %w", err)
	}

	signer, err := keys.NewHMACSigner(signingKeyID, config.GetJWTSecret())
	if err != nil {
		return nil, fmt.Errorf("[server.New] failed to create signer: %w", err)
	}
	creator, err := jwt.NewCreator(config.GetIssuer(), config.GetAccessTokenExpiry(), signer)
	if err != nil {
		return nil, fmt.Errorf("[server.New] failed to create token creator: %w", err)
	}
	refreshManager, err := refresh.NewManager(repos.RefreshTokens, config.GetRefreshTokenExpiry(), config.GetRefreshTokenLength())
	if err != nil {
		return nil, fmt.Errorf("[server.New] failed to create refresh manager: %w", err)
	}

	s := &Server{
		env:         config.GetEnv(),
		mux:         http.NewServeMux(),
		config:      config,
		repos:       repos,
		logger:      log.Logger,
		tokens:      creator,
		refresh:     refreshManager,
		revoked:     token.NewInMemoryRevokedTokenCache(),
		resetTokens: make(map[string]passwordReset),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry, s.metrics = newRegistry()

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[server.New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// CleanupExpiredTokens drops revocation entries for access tokens that have
// expired and deletes expired refresh tokens. It returns the number removed.
func (s *Server) CleanupExpiredTokens() (int, error) {
	removed := s.revoked.Cleanup()
	purged, err := s.refresh.PurgeExpired()
	return removed + purged, err
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

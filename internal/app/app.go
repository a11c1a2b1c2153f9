// Package app assembles the client side of the admin console from the
// configuration: session storage, the session manager, the API gateway and
// the per-resource clients built on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-attendance-admin/attendance"
	"github.com/jrsteele09/go-attendance-admin/auth"
	"github.com/jrsteele09/go-attendance-admin/dashboard"
	"github.com/jrsteele09/go-attendance-admin/gateway"
	"github.com/jrsteele09/go-attendance-admin/internal/config"
	"github.com/jrsteele09/go-attendance-admin/sessions"
	"github.com/jrsteele09/go-attendance-admin/tasks"
	"github.com/jrsteele09/go-attendance-admin/tokenstore"
	"github.com/jrsteele09/go-attendance-admin/tokenstore/filekv"
	"github.com/jrsteele09/go-attendance-admin/tokenstore/kvfake"
	"github.com/jrsteele09/go-attendance-admin/tokenstore/rediskv"
	"github.com/jrsteele09/go-attendance-admin/users/usersapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type App struct {
	Config     config.Config
	Store      *tokenstore.Store
	Sessions   *sessions.Manager
	Gateway    *gateway.Gateway
	Auth       *auth.Service
	Employees  *usersapi.Client
	Admins     *usersapi.AdminClient
	Tasks      *tasks.Client
	Attendance *attendance.Client
	Dashboard  *dashboard.Loader

	closers []func() error
}

type Option func(*options)

type options struct {
	backend    tokenstore.Backend
	registerer prometheus.Registerer
	logger     zerolog.Logger
	observers  []sessions.Observer
}

// WithBackend stores the session in backend instead of the configured store
func WithBackend(backend tokenstore.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

// WithRegisterer registers the gateway metrics with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver is notified of every session change
func WithObserver(observer sessions.Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, observer)
	}
}

// New wires the application and restores any stored session. The caller
// must Close the returned App.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("[app.New] config is required")
	}
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}
	backend := o.backend
	if backend == nil {
		var err error
		if backend, err = a.newBackend(ctx, cfg); err != nil {
			return nil, err
		}
	}

	if err := a.wire(backend, o); err != nil {
		_ = a.Close()
		return nil, err
	}
	if _, err := a.Auth.Bootstrap(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("[app.New] %w", err)
	}
	return a, nil
}

func (a *App) newBackend(ctx context.Context, cfg config.SessionConfig) (tokenstore.Backend, error) {
	switch cfg.GetStoreBackend() {
	case config.StoreBackendFile:
		backend, err := filekv.NewOS(cfg.GetDataFolder())
		if err != nil {
			return nil, fmt.Errorf("[app.New] %w", err)
		}
		return backend, nil
	case config.StoreBackendRedis:
		client, err := rediskv.Connect(ctx, cfg.GetRedisURL(), cfg.GetRedisRetryAttempts(), cfg.GetRedisRetryInterval())
		if err != nil {
			return nil, fmt.Errorf("[app.New] %w", err)
		}
		a.closers = append(a.closers, client.Close)
		backend, err := rediskv.New(client, cfg.GetRedisKeyPrefix(), rediskv.WithTTL(cfg.GetRedisSessionTTL()))
		if err != nil {
			return nil, fmt.Errorf("[app.New] %w", err)
		}
		return backend, nil
	case config.StoreBackendMemory:
		return kvfake.NewFakeBackend(), nil
	default:
		return nil, fmt.Errorf("[app.New] unknown session store %q", cfg.GetStoreBackend())
	}
}

func (a *App) wire(backend tokenstore.Backend, o options) error {
	var err error
	if a.Store, err = tokenstore.New(backend, tokenstore.WithLogger(o.logger)); err != nil {
		return fmt.Errorf("[app.New] %w", err)
	}

	managerOpts := []sessions.Option{sessions.WithLogger(o.logger)}
	for _, observer := range o.observers {
		managerOpts = append(managerOpts, sessions.WithObserver(observer))
	}
	if a.Sessions, err = sessions.NewManager(a.Store, managerOpts...); err != nil {
		return fmt.Errorf("[app.New] %w", err)
	}

	if a.Gateway, err = gateway.New(a.Config.GetBaseURL(), a.Sessions,
		gateway.WithHTTPClient(&http.Client{Timeout: a.Config.GetRequestTimeout()}),
		gateway.WithRefreshPath(a.Config.GetRefreshPath()),
		gateway.WithExpiryBuffer(a.Config.GetExpiryBuffer()),
		gateway.WithCoalescedRefresh(a.Config.GetCoalesceRefresh()),
		gateway.WithMetrics(o.registerer),
		gateway.WithLogger(o.logger),
	); err != nil {
		return fmt.Errorf("[app.New] %w", err)
	}

	if a.Auth, err = auth.NewService(a.Gateway, a.Sessions); err != nil {
		return fmt.Errorf("[app.New] %w", err)
	}
	a.Employees = usersapi.NewClient(a.Gateway)
	a.Admins = usersapi.NewAdminClient(a.Gateway)
	if a.Tasks, err = tasks.NewClient(a.Gateway); err != nil {
		return fmt.Errorf("[app.New] %w", err)
	}
	if a.Attendance, err = attendance.NewClient(a.Gateway); err != nil {
		return fmt.Errorf("[app.New] %w", err)
	}
	if a.Dashboard, err = dashboard.NewLoader(a.Employees, a.Tasks, a.Attendance); err != nil {
		return fmt.Errorf("[app.New] %w", err)
	}
	return nil
}

// HTTPClient sends the session's access token on every request without the
// gateway's refresh handling, for endpoints that have no typed client.
func (a *App) HTTPClient(ctx context.Context) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: a.Config.GetRequestTimeout()})
	return oauth2.NewClient(ctx, a.Sessions.TokenSource())
}

// Close releases the session backend's connections
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	a.closers = nil
	return errors.Join(errs...)
}

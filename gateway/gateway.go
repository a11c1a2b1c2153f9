// Package gateway is the single choke point for calls to the attendance API.
// It attaches the session's bearer token and, on a 401, refreshes the token
// and retries the call exactly once.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-attendance-admin/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRefreshPath = "/api/v1/auth/refresh-token"
	RequestIDHeader    = "X-Request-ID"

	// a first try and one retry after a refresh
	maxAttempts = 2
)

// Session is the view of the session the gateway needs. *sessions.Manager
// satisfies it.
type Session interface {
	AccessToken() string
	RefreshToken() string
	NeedsRefresh(buffer time.Duration) bool
	Dispatch(ctx context.Context, event sessions.Event) (sessions.Session, error)
}

type Gateway struct {
	baseURL      string
	session      Session
	client       *http.Client
	refreshPath  string
	coalesce     bool
	expiryBuffer time.Duration
	metrics      *metrics
	logger       zerolog.Logger
	refreshes    singleflight.Group
}

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithRefreshPath sets the refresh endpoint, relative to the base URL
func WithRefreshPath(path string) Option {
	return func(g *Gateway) {
		g.refreshPath = path
	}
}

// WithCoalescedRefresh makes concurrent 401s share one in-flight refresh.
// It is on by default.
func WithCoalescedRefresh(coalesce bool) Option {
	return func(g *Gateway) {
		g.coalesce = coalesce
	}
}

// WithExpiryBuffer refreshes before dispatch when the access token expires
// within buffer. Zero, the default, only refreshes on a 401.
func WithExpiryBuffer(buffer time.Duration) Option {
	return func(g *Gateway) {
		g.expiryBuffer = buffer
	}
}

func WithMetrics(reg prometheus.Registerer) Option {
	return func(g *Gateway) {
		g.metrics = newMetrics(reg)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func New(baseURL string, session Session, opts ...Option) (*Gateway, error) {
	if baseURL == "" {
		return nil, errors.New("[gateway.New] baseURL is required")
	}
	if session == nil {
		return nil, errors.New("[gateway.New] session is required")
	}
	g := &Gateway{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		session:     session,
		client:      &http.Client{Timeout: 30 * time.Second},
		refreshPath: DefaultRefreshPath,
		coalesce:    true,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = newMetrics(nil)
	}
	return g, nil
}

// Execute sends req with the session's bearer token. A 401 triggers at most
// one refresh and one retry; the retry's result is returned whatever it is.
// When the refresh fails the session is logged out and the error wraps
// ErrRefreshFailed. Every other result is returned as received, with
// non-2xx statuses as *StatusError.
func (g *Gateway) Execute(ctx context.Context, req Request) (*Response, error) {
	if g.expiryBuffer > 0 && g.session.NeedsRefresh(g.expiryBuffer) {
		if refreshToken := g.session.RefreshToken(); refreshToken != "" {
			if err := g.refresh(ctx, refreshToken, g.session.AccessToken()); err != nil {
				g.metrics.request(OutcomeRefreshFailed)
				return nil, err
			}
		}
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		accessToken := g.session.AccessToken()
		resp, err := g.send(ctx, req, accessToken)
		if err != nil {
			g.metrics.request(OutcomeTransportError)
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized || attempt == maxAttempts-1 {
			return g.result(req, resp)
		}

		refreshToken := g.session.RefreshToken()
		if refreshToken == "" {
			g.logger.Debug().Str("path", req.Path).Msg("[Gateway.Execute] unauthorized with no refresh token, logging out")
			g.dispatch(ctx, sessions.Logout{})
			g.metrics.request(OutcomeUnauthorized)
			return nil, fmt.Errorf("%w: %w", ErrNoRefreshToken, newStatusError(req, resp))
		}

		if err := g.refresh(ctx, refreshToken, accessToken); err != nil {
			g.metrics.request(OutcomeRefreshFailed)
			return nil, err
		}
		g.logger.Debug().Str("path", req.Path).Msg("[Gateway.Execute] token refreshed, retrying")
	}

	// unreachable: the last attempt always returns
	return nil, errors.New("[Gateway.Execute] retry limit exceeded")
}

// ExecutePublic sends req once without a bearer token and without any 401
// handling. It is for calls made before a session exists, such as login.
func (g *Gateway) ExecutePublic(ctx context.Context, req Request) (*Response, error) {
	resp, err := g.send(ctx, req, "")
	if err != nil {
		g.metrics.request(OutcomeTransportError)
		return nil, err
	}
	return g.result(req, resp)
}

func (g *Gateway) result(req Request, resp *Response) (*Response, error) {
	switch {
	case resp.ok():
		g.metrics.request(OutcomeOK)
		return resp, nil
	case resp.StatusCode == http.StatusUnauthorized:
		g.metrics.request(OutcomeUnauthorized)
	default:
		g.metrics.request(OutcomeHTTPError)
	}
	return resp, newStatusError(req, resp)
}

// refresh obtains a new access token. staleToken is the token the caller
// was rejected with; with coalescing on, a caller whose token has already
// been replaced by a concurrent refresh skips straight to its retry.
// A coalesced refresh outlives the caller that started it, but every caller
// stops waiting when its own ctx is done.
func (g *Gateway) refresh(ctx context.Context, refreshToken, staleToken string) error {
	if !g.coalesce {
		return g.doRefresh(ctx, refreshToken)
	}
	sharedCtx := context.WithoutCancel(ctx)
	led := false
	results := g.refreshes.DoChan(refreshToken, func() (interface{}, error) {
		led = true
		if current := g.session.AccessToken(); current != "" && current != staleToken {
			g.metrics.refresh(RefreshShared)
			return nil, nil
		}
		return nil, g.doRefresh(sharedCtx, refreshToken)
	})
	select {
	case res := <-results:
		// led is only written before the result is sent
		if !led {
			g.metrics.refresh(RefreshShared)
		}
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("[Gateway.refresh] waiting for token refresh: %w", ctx.Err())
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

func (g *Gateway) doRefresh(ctx context.Context, refreshToken string) error {
	g.dispatch(ctx, sessions.RefreshStart{})

	token, err := g.requestRefresh(ctx, refreshToken)
	if err == nil {
		_, err = g.session.Dispatch(ctx, sessions.RefreshSuccess{AccessToken: token.AccessToken, ExpiresIn: token.ExpiresIn})
	}
	if err != nil {
		g.metrics.refresh(RefreshFailure)
		g.logger.Warn().Err(err).Msg("[Gateway.refresh] token refresh failed, logging out")
		g.dispatch(ctx, sessions.RefreshFailure{Message: err.Error()})
		g.dispatch(ctx, sessions.Logout{})
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	g.metrics.refresh(RefreshSuccess)
	return nil
}

func (g *Gateway) requestRefresh(ctx context.Context, refreshToken string) (*refreshResponse, error) {
	req := Post(g.refreshPath, refreshRequest{RefreshToken: refreshToken})
	resp, err := g.send(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newStatusError(req, resp)
	}
	var token refreshResponse
	if err := resp.Decode(&token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("refresh response has no access token")
	}
	return &token, nil
}

// send performs one HTTP round trip
func (g *Gateway) send(ctx context.Context, req Request, accessToken string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("[Gateway.send] json.Marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := g.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), target, body)
	if err != nil {
		return nil, fmt.Errorf("[Gateway.send] http.NewRequest: %w", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("[Gateway.send] %s %s: %w", req.method(), req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("[Gateway.send] reading body of %s %s: %w", req.method(), req.Path, err)
	}

	g.logger.Debug().
		Str("method", req.method()).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Msg("[Gateway.send]")

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

func (g *Gateway) dispatch(ctx context.Context, event sessions.Event) {
	if _, err := g.session.Dispatch(ctx, event); err != nil {
		g.logger.Debug().Err(err).Str("event", event.String()).Msg("[Gateway] session event ignored")
	}
}

// Call executes req and decodes a successful JSON response into T
func Call[T any](ctx context.Context, g *Gateway, req Request) (*T, error) {
	return decode[T](g.Execute(ctx, req))
}

// CallPublic is Call over ExecutePublic
func CallPublic[T any](ctx context.Context, g *Gateway, req Request) (*T, error) {
	return decode[T](g.ExecutePublic(ctx, req))
}

func decode[T any](resp *Response, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	var out T
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Package tokenstore persists the signed-in session (tokens, expiry and user
// profile) on a key/value backend. Every write is an independent key write;
// a record missing any key is treated as no session at all.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-attendance-admin/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyTokenExpiry  = "tokenExpiry" // decimal epoch milliseconds
	KeyUserData     = "userData"    // JSON encoded users.User
	KeyTokenType    = "tokenType"   // optional, defaults to Bearer

	DefaultTokenType = "Bearer"
)

var allKeys = []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiry, KeyUserData, KeyTokenType}

// Keys lists every key a Store may write
func Keys() []string {
	return slices.Clone(allKeys)
}

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Backend is the durable key/value storage a Store writes to
type Backend interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// Tokens is the token set returned by a login, with a relative lifetime in seconds
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
}

// Record is the persisted session
type Record struct {
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	TokenType    string
	User         users.User
}

// ExpiryAfter returns now + expiresIn seconds, truncated to the millisecond
// precision the store persists.
func ExpiryAfter(now time.Time, expiresIn int64) time.Time {
	return time.UnixMilli(now.UnixMilli() + expiresIn*1000)
}

type Store struct {
	backend Backend
	now     func() time.Time
	logger  zerolog.Logger
}

type Option func(*Store)

func WithNowTime(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("[tokenstore.New] backend is required")
	}
	s := &Store{
		backend: backend,
		now:     NowTimeFunc,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save computes the expiry from tokens.ExpiresIn and writes the full record
func (s *Store) Save(ctx context.Context, tokens Tokens, user users.User) Record {
	record := Record{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenExpiry:  ExpiryAfter(s.now(), tokens.ExpiresIn),
		TokenType:    tokens.TokenType,
		User:         user,
	}
	s.Write(ctx, record)
	return record
}

// Write persists a record whose expiry is already absolute
func (s *Store) Write(ctx context.Context, record Record) {
	userData, err := json.Marshal(record.User)
	if err != nil {
		s.logger.Warn().Err(err).Msg("[Store.Write] unable to encode user, session not persisted")
		return
	}
	tokenType := record.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	s.set(ctx, KeyAccessToken, record.AccessToken)
	s.set(ctx, KeyRefreshToken, record.RefreshToken)
	s.set(ctx, KeyTokenExpiry, formatExpiry(record.TokenExpiry))
	s.set(ctx, KeyUserData, string(userData))
	s.set(ctx, KeyTokenType, tokenType)
}

// UpdateAccessToken rewrites the access token and an expiry computed from
// expiresIn. The refresh token and user are left untouched.
func (s *Store) UpdateAccessToken(ctx context.Context, accessToken string, expiresIn int64) time.Time {
	expiry := ExpiryAfter(s.now(), expiresIn)
	s.WriteAccessToken(ctx, accessToken, expiry)
	return expiry
}

func (s *Store) WriteAccessToken(ctx context.Context, accessToken string, expiry time.Time) {
	s.set(ctx, KeyAccessToken, accessToken)
	s.set(ctx, KeyTokenExpiry, formatExpiry(expiry))
}

// UpdateUser rewrites only the stored profile
func (s *Store) UpdateUser(ctx context.Context, user users.User) {
	userData, err := json.Marshal(user)
	if err != nil {
		s.logger.Warn().Err(err).Msg("[Store.UpdateUser] unable to encode user")
		return
	}
	s.set(ctx, KeyUserData, string(userData))
}

// Load returns the stored record, or nil when any required key is missing,
// malformed, or the backend cannot be read. Expiry is not checked here.
func (s *Store) Load(ctx context.Context) *Record {
	values := make(map[string]string, len(allKeys))
	for _, key := range allKeys {
		value, found, err := s.backend.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("[Store.Load] storage unavailable, treating as no session")
			return nil
		}
		if found {
			values[key] = value
		}
	}

	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiry, KeyUserData} {
		if strings.TrimSpace(values[key]) == "" {
			return nil
		}
	}

	expiryMillis, err := strconv.ParseInt(values[KeyTokenExpiry], 10, 64)
	if err != nil {
		s.logger.Warn().Err(err).Msg("[Store.Load] malformed token expiry")
		return nil
	}

	var user users.User
	if err := json.Unmarshal([]byte(values[KeyUserData]), &user); err != nil {
		s.logger.Warn().Err(err).Msg("[Store.Load] malformed user data")
		return nil
	}

	tokenType := values[KeyTokenType]
	if tokenType == "" {
		tokenType = DefaultTokenType
	}

	return &Record{
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
		TokenExpiry:  time.UnixMilli(expiryMillis),
		TokenType:    tokenType,
		User:         user,
	}
}

// Clear deletes every key. It is safe to call when nothing is stored.
func (s *Store) Clear(ctx context.Context) {
	for _, key := range allKeys {
		if err := s.backend.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("[Store.Clear] unable to delete key")
		}
	}
}

// AuthHeader returns the Authorization header value for the stored access
// token, or "" when there is no stored session.
func (s *Store) AuthHeader(ctx context.Context) string {
	record := s.Load(ctx)
	if record == nil {
		return ""
	}
	return record.TokenType + " " + record.AccessToken
}

func (s *Store) set(ctx context.Context, key, value string) {
	if err := s.backend.Set(ctx, key, value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("[Store] storage unavailable, write skipped")
	}
}

func formatExpiry(expiry time.Time) string {
	return strconv.FormatInt(expiry.UnixMilli(), 10)
}

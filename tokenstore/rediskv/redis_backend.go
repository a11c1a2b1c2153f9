// Package rediskv keeps the session in Redis so several processes on
// different hosts can share one sign-in.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/tokenstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Client is the subset of *redis.Client the backend uses
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

type Backend struct {
	client Client
	prefix string
	ttl    time.Duration
}

type Option func(*Backend)

// WithTTL expires the session ttl after its last write. Every write renews
// the deadline of all session keys together, so a partial rewrite such as a
// refreshed access token never leaves older keys to expire first. Zero keeps
// keys forever.
func WithTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.ttl = ttl
	}
}

func New(client Client, prefix string, opts ...Option) (*Backend, error) {
	if client == nil {
		return nil, errors.New("[rediskv.New] client is required")
	}
	b := &Backend{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, b.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[Backend.Get] redis GET %s: %w: %w", key, apperrors.ErrStorageUnavailable, err)
	}
	return value, true, nil
}

func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := b.client.Set(ctx, b.prefix+key, value, b.ttl).Err(); err != nil {
		return fmt.Errorf("[Backend.Set] redis SET %s: %w: %w", key, apperrors.ErrStorageUnavailable, err)
	}
	if b.ttl == 0 {
		return nil
	}
	for _, other := range tokenstore.Keys() {
		if other == key {
			continue
		}
		if err := b.client.Expire(ctx, b.prefix+other, b.ttl).Err(); err != nil {
			return fmt.Errorf("[Backend.Set] redis EXPIRE %s: %w: %w", other, apperrors.ErrStorageUnavailable, err)
		}
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.prefix+key).Err(); err != nil {
		return fmt.Errorf("[Backend.Delete] redis DEL %s: %w: %w", key, apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

// WaitReady pings the client until it answers, backing off exponentially
// between at most attempts tries.
func WaitReady(ctx context.Context, client Client, attempts uint, delay time.Duration) error {
	err := retry.Do(
		func() error {
			return client.Ping(ctx).Err()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("[rediskv.WaitReady] redis not ready, retrying")
		}),
	)
	if err != nil {
		return fmt.Errorf("[rediskv.WaitReady] redis PING: %w", err)
	}
	return nil
}

// Connect parses a redis:// URL, opens a client and waits for it to answer
func Connect(ctx context.Context, url string, attempts uint, delay time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("[rediskv.Connect] redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := WaitReady(ctx, client, attempts, delay); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

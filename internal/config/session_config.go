package config

import "time"

const (
	StoreBackendFile   = "file"
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"
)

type SessionConfig interface {
	GetStoreBackend() string
	GetDataFolder() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
	GetRedisSessionTTL() time.Duration
	GetRedisRetryAttempts() uint
	GetRedisRetryInterval() time.Duration
	GetExpiryBuffer() time.Duration
	GetCoalesceRefresh() bool
}

type Session struct {
	StoreBackend       string        `env:"SESSION_STORE" envDefault:"file"`
	DataFolder         string        `env:"FOLDER" envDefault:"./data"`
	RedisURL           string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisKeyPrefix     string        `env:"REDIS_KEY_PREFIX" envDefault:"attendance:session:"`
	RedisSessionTTL    time.Duration `env:"REDIS_SESSION_TTL" envDefault:"0s"`
	RedisRetryAttempts uint          `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RedisRetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s"`
	ExpiryBuffer       time.Duration `env:"SESSION_EXPIRY_BUFFER" envDefault:"0s"`
	CoalesceRefresh    bool          `env:"SESSION_COALESCE_REFRESH" envDefault:"true"`
}

var _ SessionConfig = Session{}

// GetStoreBackend returns one of "file", "redis" or "memory"
func (s Session) GetStoreBackend() string {
	return s.StoreBackend
}

func (s Session) GetDataFolder() string {
	return s.DataFolder
}

func (s Session) GetRedisURL() string {
	return s.RedisURL
}

func (s Session) GetRedisKeyPrefix() string {
	return s.RedisKeyPrefix
}

// GetRedisSessionTTL is how long an untouched session lives in Redis. Zero keeps it until logout.
func (s Session) GetRedisSessionTTL() time.Duration {
	return s.RedisSessionTTL
}

func (s Session) GetRedisRetryAttempts() uint {
	return s.RedisRetryAttempts
}

func (s Session) GetRedisRetryInterval() time.Duration {
	return s.RedisRetryInterval
}

// GetExpiryBuffer is how long before expiry the gateway refreshes proactively. Zero disables it.
func (s Session) GetExpiryBuffer() time.Duration {
	return s.ExpiryBuffer
}

func (s Session) GetCoalesceRefresh() bool {
	return s.CoalesceRefresh
}

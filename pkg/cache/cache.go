package cache

import (
	"context"
	"time"
)

// Cache is the backend-agnostic key/value store used for short-lived state
// such as TTS server health probes and per-user settings.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
	Clear(ctx context.Context) error
	Close() error
}

// Config selects and configures a cache backend.
type Config struct {
	// "local" or "redis"
	Type string

	Redis RedisConfig
	Local LocalConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LocalConfig struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	}
}

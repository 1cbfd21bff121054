// Package store provides drivers for persisting chat session state.
package store

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/chadiek/talkpdf/internal/chat"
)

// Driver selects a persistence backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverFile   Driver = "file"
	DriverRedis  Driver = "redis"
)

var (
	ErrInvalidConfig = errors.New("store: invalid configuration")
	ErrInvalidDriver = errors.New("store: invalid driver")
)

// Option configures a store driver.
type Option func(*config)

type config struct {
	path        string
	redisClient *redis.Client
	redisKey    string
}

// WithPath sets the file path for the file driver.
func WithPath(path string) Option {
	return func(c *config) { c.path = path }
}

// WithRedisClient sets the Redis client for the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *config) { c.redisClient = client }
}

// WithRedisKey overrides the Redis key the snapshot is stored under.
func WithRedisKey(key string) Option {
	return func(c *config) { c.redisKey = key }
}

// Open constructs a chat.Store for the given driver.
func Open(driver Driver, opts ...Option) (chat.Store, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		if cfg.path == "" {
			return nil, ErrInvalidConfig
		}
		return NewFileStore(cfg.path), nil
	case DriverRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		key := cfg.redisKey
		if key == "" {
			key = "talkpdf:sessions"
		}
		return NewRedisStore(cfg.redisClient, key), nil
	default:
		return nil, ErrInvalidDriver
	}
}

package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("key not found in cache")
	ErrClosed   = errors.New("cache is closed")
)

// Cache is a byte-oriented key/value cache with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Options struct {
	DefaultTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// KeyPrefix namespaces every key so several deployments can share one Redis database.
	KeyPrefix string
}

func DefaultOptions() Options {
	return Options{DefaultTTL: 10 * time.Minute, KeyPrefix: "talentflow:"}
}

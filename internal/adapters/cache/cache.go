// Package cache provides byte caches for upstream responses. Backends are
// in-memory, Redis, SQLite and a no-op cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/sniped/pkg/metrics"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Cache stores opaque values under string keys with a time to live.
// A ttl <= 0 stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Open builds the cache for backend and wraps it with metrics.
func Open(ctx context.Context, backend string, opts ...Option) (Cache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var (
		c   Cache
		err error
	)
	switch backend {
	case BackendMemory, "":
		backend = BackendMemory
		c = NewMemory(o.maxEntries)
	case BackendRedis:
		c, err = NewRedis(ctx, o.redisAddr, o.redisPassword, o.redisDB)
	case BackendSQLite:
		c, err = NewSQLite(ctx, o.sqlitePath)
	case BackendNone:
		c = Nop{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, err
	}
	return &instrumented{backend: backend, next: c}, nil
}

// instrumented records cache operations per backend.
type instrumented struct {
	backend string
	next    Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.next.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheOperation(c.backend, "get", "error")
	case ok:
		metrics.RecordCacheOperation(c.backend, "get", "hit")
	default:
		metrics.RecordCacheOperation(c.backend, "get", "miss")
	}
	return v, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.next.Set(ctx, key, value, ttl)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordCacheOperation(c.backend, "set", result)
	return err
}

func (c *instrumented) Close() error { return c.next.Close() }

// Nop never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Close is a no-op.
func (Nop) Close() error { return nil }

package cache

import (
	"context"
	"time"
)

// CacheRepository is a byte-value cache with per-key TTL. Used for Pokemon
// attribute records, which are immutable and safe to cache aggressively.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

const ErrNotFound = CacheError("key not found in cache")

package ports

import (
	"context"
)

// CacheService provides read-through caching.
type CacheService interface {
	// Get returns domain.ErrCacheMiss when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

package cache

import (
	"context"
	"time"
)

// Store is a key-value store with per-key expiration
type Store interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	// Take reads and deletes key atomically. Missing and expired keys report false.
	Take(ctx context.Context, key string) (string, bool, error)
	Close() error
}

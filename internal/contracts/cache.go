package contracts

import (
	"context"
	"strings"
	"time"
)

// BundleCache is a keyed bundle store with per-entry TTL
type BundleCache interface {
	// Get returns ErrCacheMiss when the key is absent or expired
	Get(ctx context.Context, key string) (*Bundle, error)
	Set(ctx context.Context, key string, bundle *Bundle, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear drops every bundle and reports how many were removed
	Clear(ctx context.Context) (int, error)
}

// BundleKey builds the cache key for an exact, ordered code list
func BundleKey(codes []string) string {
	return "bundle:" + strings.Join(codes, ",")
}

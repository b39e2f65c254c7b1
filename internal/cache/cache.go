// Package cache defines the byte-level cache contract used to memoize
// rendered tracking views between reads.
package cache

import (
	"context"
	"time"
)

// BytesCache stores opaque values under string keys with a TTL. A miss is
// (nil, false, nil); errors are reserved for transport problems.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Noop satisfies BytesCache without storing anything, for deployments that
// run without Redis.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (Noop) Del(ctx context.Context, keys ...string) error { return nil }

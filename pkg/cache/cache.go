// Package cache stores rendered icon artifacts between runs.
//
// Rendering an icon is cheap compared to a full editor round trip but not
// free for large sources, so the pipeline keys the encoded .ico by the
// source pixels and the selected sizes. The CLI uses a [FileCache] under
// $XDG_CACHE_HOME/iconstack; tests and --no-cache use [NullCache].
// `iconstack serve --redis-url` shares entries through a [RedisCache].
package cache

import (
	"context"
	"time"
)

// TTLIcon is how long a rendered icon stays valid.
const TTLIcon = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

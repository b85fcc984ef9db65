package directory

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CachingDirectory wraps a Directory with an expiring LRU so mapping
// resolution does not pay a directory round trip per connection name.
// Lookup misses are not cached; a connection added to the directory becomes
// visible on the next resolution.
type CachingDirectory struct {
	inner Directory
	cache *lru.LRU[string, *Connection]
}

// NewCachingDirectory wraps inner with a cache of at most size entries that
// expire after ttl.
func NewCachingDirectory(inner Directory, size int, ttl time.Duration) *CachingDirectory {
	if size <= 0 {
		size = 128
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingDirectory{
		inner: inner,
		cache: lru.NewLRU[string, *Connection](size, nil, ttl),
	}
}

// LookupConnection serves from the cache when possible.
func (d *CachingDirectory) LookupConnection(ctx context.Context, name string) (*Connection, error) {
	if conn, ok := d.cache.Get(name); ok {
		return conn, nil
	}
	conn, err := d.inner.LookupConnection(ctx, name)
	if err != nil {
		return nil, err
	}
	d.cache.Add(name, conn)
	return conn, nil
}

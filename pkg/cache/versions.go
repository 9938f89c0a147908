package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vx-dev/vx/pkg/platform"
)

// DefaultVersionTTL is how long a cached version-catalog query stays fresh.
const DefaultVersionTTL = 24 * time.Hour

// VersionCache persists version-catalog query results under
// cache/versions/<source>.<query>.json with a TTL, so repeated resolutions
// in quick succession don't refetch the same remote index.
type VersionCache struct {
	Paths platform.Paths
	TTL   time.Duration
}

// NewVersionCache builds a cache over the given paths; ttl <= 0 means
// DefaultVersionTTL.
func NewVersionCache(paths platform.Paths, ttl time.Duration) *VersionCache {
	if ttl <= 0 {
		ttl = DefaultVersionTTL
	}
	return &VersionCache{Paths: paths, TTL: ttl}
}

// Get loads a fresh cached result into out, reporting whether one existed.
// A stale, missing, or unreadable entry is simply a miss.
func (c *VersionCache) Get(source, query string, out any) bool {
	path := c.Paths.VersionCacheFile(source, query)
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > c.TTL {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// Put stores a query result, replacing the file atomically so a concurrent
// reader never sees a half-written entry.
func (c *VersionCache) Put(source, query string, v any) error {
	path := c.Paths.VersionCacheFile(source, query)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating version cache directory: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding version cache entry: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing version cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing version cache entry: %w", err)
	}
	return nil
}

// Invalidate drops a cached entry, called when its source errors so the
// next resolution refetches rather than trusting possibly-bad data.
func (c *VersionCache) Invalidate(source, query string) {
	_ = os.Remove(c.Paths.VersionCacheFile(source, query))
}

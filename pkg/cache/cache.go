// Package cache holds vx's two on-disk caches: downloaded artifacts
// (keyed by URL, so a re-install of the same version never refetches) and
// version-catalog query results (versions.go, TTL'd).
package cache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vx-dev/vx/pkg/utils"
)

// ArtifactCache stores downloaded files under <dir>/<url-hash>/<filename>.
// A zero-value (empty Dir) cache is disabled: every operation is a no-op
// or a miss, so callers don't guard each call site.
type ArtifactCache struct {
	Dir string
}

// NewArtifactCache returns a cache rooted at dir; empty disables caching.
func NewArtifactCache(dir string) *ArtifactCache {
	return &ArtifactCache{Dir: dir}
}

// pathFor computes the cache location for a URL's artifact. The URL is
// hashed so arbitrarily long or strangely shaped URLs can't break paths.
func (c *ArtifactCache) pathFor(url, filename string) string {
	if c.Dir == "" {
		return ""
	}

	normalized := strings.TrimPrefix(url, "https://")
	normalized = strings.TrimPrefix(normalized, "http://")
	normalized = strings.TrimSuffix(normalized, "/")
	sum := sha256.Sum256([]byte(normalized))

	return filepath.Join(c.Dir, fmt.Sprintf("%x", sum[:8]), filename)
}

// Lookup returns the cached path for a URL's artifact and whether it exists.
func (c *ArtifactCache) Lookup(url, filename string) (string, bool) {
	path := c.pathFor(url, filename)
	if path == "" {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Store copies a downloaded file into the cache; disabled caches accept
// and drop it.
func (c *ArtifactCache) Store(url, sourcePath string) error {
	path := c.pathFor(url, filepath.Base(sourcePath))
	if path == "" {
		return nil
	}
	if err := utils.CopyFile(sourcePath, path); err != nil {
		return fmt.Errorf("caching %s: %w", filepath.Base(sourcePath), err)
	}
	return nil
}

// Restore copies a cached artifact to dest.
func (c *ArtifactCache) Restore(cachePath, dest string) error {
	if err := utils.CopyFile(cachePath, dest); err != nil {
		return fmt.Errorf("restoring %s from cache: %w", filepath.Base(dest), err)
	}
	return nil
}

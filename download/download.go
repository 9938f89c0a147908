// Package download fetches release artifacts: stream to a .partial
// sibling, hash while streaming, verify against whatever checksum the
// caller resolved (a literal value, a checksum file URL, or several files
// combined through a CEL expression), and only then rename into place. A
// failed verification leaves nothing at the destination.
package download

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flanksource/clicky/task"
	"github.com/vx-dev/vx/pkg/cache"
	"github.com/vx-dev/vx/pkg/checksum"
	depshttp "github.com/vx-dev/vx/pkg/httpclient"
	"github.com/vx-dev/vx/pkg/utils"
)

// streamTimeout bounds one artifact transfer end to end.
const streamTimeout = 10 * time.Minute

type downloadConfig struct {
	expectedChecksum string
	checksumURLs     []string
	checksumNames    []string
	checksumExpr     string
	cacheDir         string
}

// DownloadOption configures a single Download call.
type DownloadOption func(*downloadConfig)

// WithChecksum verifies the artifact against a known checksum, in either
// bare-hex or "sha256:<hex>" form.
func WithChecksum(value string) DownloadOption {
	return func(c *downloadConfig) { c.expectedChecksum = value }
}

// WithChecksumURL fetches a single checksum file published next to the
// artifact and matches the artifact's entry inside it.
func WithChecksumURL(url string) DownloadOption {
	return func(c *downloadConfig) { c.checksumURLs = []string{url} }
}

// WithChecksumURLs fetches several checksum files; with an expression they
// are combined through CEL, otherwise the first file that parses wins.
func WithChecksumURLs(urls []string, expr string) DownloadOption {
	return func(c *downloadConfig) {
		c.checksumURLs = urls
		c.checksumExpr = expr
	}
}

// WithChecksumURLsAndNames additionally names each file, so the CEL
// expression can reference them as variables.
func WithChecksumURLsAndNames(urls []string, names []string, expr string) DownloadOption {
	return func(c *downloadConfig) {
		c.checksumURLs = urls
		c.checksumNames = names
		c.checksumExpr = expr
	}
}

// WithCacheDir caches verified artifacts under dir, keyed by URL.
func WithCacheDir(dir string) DownloadOption {
	return func(c *downloadConfig) { c.cacheDir = dir }
}

// Download fetches url into dest, verifying it when the options carry a
// checksum source. The destination only ever appears fully written and
// verified.
func Download(url, dest string, t *task.Task, opts ...DownloadOption) error {
	var config downloadConfig
	for _, opt := range opts {
		opt(&config)
	}

	expected, expectedType, err := resolveExpectedChecksum(&config, url, t)
	if err != nil {
		return err
	}

	artifacts := cache.NewArtifactCache(config.cacheDir)
	if cached, ok := artifacts.Lookup(url, filepath.Base(dest)); ok {
		if err := verifyFile(cached, expected, expectedType); err == nil {
			if t != nil {
				t.V(3).Infof("Using cached download for %s", utils.ShortenURL(url))
			}
			return artifacts.Restore(cached, dest)
		}
		// A stale or corrupt cache entry is re-downloaded, not fatal.
	}

	utils.LogDownloadStart(t, url, dest)
	actual, written, err := stream(url, dest, expectedType, t)
	if err != nil {
		return err
	}

	if expected != "" {
		if !strings.EqualFold(actual, expected) {
			os.Remove(dest + ".partial")
			return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", filepath.Base(dest), expected, actual)
		}
		if t != nil {
			t.Infof("✓ Checksum verified: %s:%s", strings.ToUpper(string(expectedType)), shortHash(actual))
		}
	}

	if err := os.Rename(dest+".partial", dest); err != nil {
		os.Remove(dest + ".partial")
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	if t != nil {
		t.V(3).Infof("Downloaded %s (%s)", filepath.Base(dest), utils.FormatBytes(written))
	}

	if config.cacheDir != "" {
		if err := artifacts.Store(url, dest); err != nil && t != nil {
			t.V(3).Infof("Failed to cache download: %v", err)
		}
	}
	return nil
}

// resolveExpectedChecksum turns the configured checksum source into a
// concrete (value, type) pair; ("", sha256) means nothing to verify.
func resolveExpectedChecksum(config *downloadConfig, downloadURL string, t *task.Task) (string, checksum.HashType, error) {
	if config.expectedChecksum != "" {
		value, hashType, err := checksum.ParseChecksumWithType(config.expectedChecksum)
		if err != nil {
			return "", "", fmt.Errorf("invalid expected checksum: %w", err)
		}
		return value, hashType, nil
	}

	if len(config.checksumURLs) == 0 {
		return "", checksum.HashTypeSHA256, nil
	}

	utils.LogChecksumFetch(t, config.checksumURLs)
	contents := make(map[string]string, len(config.checksumURLs))
	ordered := make([]string, 0, len(config.checksumURLs))
	for i, u := range config.checksumURLs {
		body, err := fetchSmall(u)
		if err != nil {
			if t != nil {
				t.V(3).Infof("Checksum file %s unavailable: %v", utils.ShortenURL(u), err)
			}
			continue
		}
		name := fmt.Sprintf("checksum_%d", i)
		if i < len(config.checksumNames) && config.checksumNames[i] != "" {
			name = config.checksumNames[i]
		}
		contents[name] = body
		ordered = append(ordered, body)
	}
	if len(contents) == 0 {
		return "", "", fmt.Errorf("none of the checksum files could be fetched")
	}

	if config.checksumExpr != "" {
		value, hashType, err := checksum.EvaluateCELExpression(contents, downloadURL, config.checksumExpr)
		if err != nil {
			return "", "", err
		}
		return value, hashType, nil
	}

	for _, body := range ordered {
		if value, hashType, err := checksum.ParseChecksumFile(body, downloadURL); err == nil {
			return value, hashType, nil
		}
	}
	return "", "", fmt.Errorf("no valid checksum found in any of the checksum files")
}

// stream downloads url to dest.partial, hashing as it writes, and returns
// the hex digest plus byte count. The .partial file is left in place for
// the caller to verify and rename.
func stream(url, dest string, hashType checksum.HashType, t *task.Task) (string, int64, error) {
	client := depshttp.GetHttpClient(depshttp.WithTimeout(streamTimeout))
	resp, err := client.Get(url)
	if err != nil {
		return "", 0, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("downloading %s: HTTP %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", 0, fmt.Errorf("creating destination directory: %w", err)
	}

	partial := dest + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", partial, err)
	}

	var hasher hash.Hash
	if hasher, err = checksum.CreateHasher(hashType); err != nil {
		hasher = sha256.New()
	}

	written, err := io.Copy(io.MultiWriter(f, hasher), resp.Body)
	closeErr := f.Close()
	if err != nil || closeErr != nil {
		os.Remove(partial)
		if err == nil {
			err = closeErr
		}
		return "", 0, fmt.Errorf("streaming %s: %w", url, err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), written, nil
}

// verifyFile hashes an existing file and compares it to expected; an
// empty expected value always passes.
func verifyFile(path, expected string, hashType checksum.HashType) error {
	if expected == "" {
		return nil
	}
	hasher, err := checksum.CreateHasher(hashType)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(hasher, f); err != nil {
		return err
	}
	actual := fmt.Sprintf("%x", hasher.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for cached %s", filepath.Base(path))
	}
	return nil
}

// fetchSmall reads a checksum-sized document.
func fetchSmall(url string) (string, error) {
	resp, err := depshttp.GetHttpClient().Get(url)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12] + "..."
	}
	return h
}

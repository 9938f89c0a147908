// Package httpclient builds the shared HTTP client vx uses for version
// catalog lookups and artifact downloads, and the enforced-HTTPS helpers
// (GetJSON, Head, StreamToFile) that sit on top of it.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"time"

	commonshttp "github.com/flanksource/commons/http"
	"github.com/flanksource/commons/logger"
	"golang.org/x/net/publicsuffix"
)

// ClientOption configures the HTTP client
type ClientOption func(*clientConfig)

type clientConfig struct {
	timeout      time.Duration
	headerLevel  logger.LogLevel
	bodyLevel    logger.LogLevel
	enableLogger bool
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithHttpLogging enables HTTP logging with specified levels
func WithHttpLogging(headerLevel, bodyLevel logger.LogLevel) ClientOption {
	return func(c *clientConfig) {
		c.headerLevel = headerLevel
		c.bodyLevel = bodyLevel
		c.enableLogger = true
	}
}

// GetHttpClient returns a configured HTTP client suitable for general use.
// It uses flanksource/commons/http for consistent logging and middleware support.
// By default, logging is enabled only when trace logging is on, at Trace1 level
// for headers and Trace2 level for bodies.
func GetHttpClient(opts ...ClientOption) *http.Client {
	cfg := &clientConfig{
		timeout:      30 * time.Second,
		headerLevel:  logger.Trace1,
		bodyLevel:    logger.Trace2,
		enableLogger: logger.IsTraceEnabled(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := commonshttp.NewClient().
		Timeout(cfg.timeout)

	if cfg.enableLogger {
		client = client.WithHttpLogging(cfg.headerLevel, cfg.bodyLevel)
	}

	// Scope cookies correctly across the redirect chains CDN-hosted
	// release artifacts bounce through (e.g. GitHub asset downloads via
	// objects.githubusercontent.com set session cookies on the way).
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		jar = nil
	}

	// Convert to standard http.Client by using the RoundTripper
	return &http.Client{
		Transport: client,
		Jar:       jar,
		Timeout:   cfg.timeout,
	}
}

// ErrInsecureScheme is returned when a caller hands an http:// (non-TLS) URL
// to a helper that enforces HTTPS, per the network-access invariant that vx
// never fetches provider manifests or artifacts over plaintext.
var ErrInsecureScheme = fmt.Errorf("insecure URL scheme, only https:// is permitted")

func requireHTTPS(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%s: %w", rawURL, ErrInsecureScheme)
	}
	return nil
}

// RetryPolicy controls how GetJSON, Head and StreamToFile retry transient
// failures (network errors and 5xx/429 responses).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy makes three attempts, waiting 500ms and then 1s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func (r RetryPolicy) do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	if r.MaxAttempts <= 0 {
		r = DefaultRetryPolicy()
	}

	var lastErr error
	delay := r.BaseDelay
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			continue
		}
		if isRetryableStatus(resp.StatusCode) && attempt < r.MaxAttempts-1 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned %s", resp.Status)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", r.MaxAttempts, lastErr)
}

// GetJSON issues an HTTPS GET and decodes the JSON response body into out.
// It is used by the version-catalog managers to query the GitHub release
// API and static JSON endpoints.
func GetJSON(ctx context.Context, rawURL string, out any, opts ...ClientOption) error {
	if err := requireHTTPS(rawURL); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")

	client := GetHttpClient(opts...)
	resp, err := DefaultRetryPolicy().do(ctx, client, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: HTTP %d: %s", rawURL, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding JSON from %s: %w", rawURL, err)
	}
	return nil
}

// Head issues an HTTPS HEAD request and returns the response, used by the
// installation engine to validate an artifact URL before committing to a
// full download.
func Head(ctx context.Context, rawURL string, opts ...ClientOption) (*http.Response, error) {
	if err := requireHTTPS(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building HEAD request for %s: %w", rawURL, err)
	}

	client := GetHttpClient(opts...)
	return DefaultRetryPolicy().do(ctx, client, req)
}

// ProgressFunc is invoked periodically during StreamToFile with the number
// of bytes written so far and the total size, if known (0 otherwise).
type ProgressFunc func(written, total int64)

// StreamToFile downloads rawURL to dest, writing to a sibling ".partial"
// file and renaming it into place only once the transfer completes, so a
// crash mid-download never leaves a corrupt file at dest.
func StreamToFile(ctx context.Context, rawURL, dest string, progress ProgressFunc, opts ...ClientOption) error {
	if err := requireHTTPS(rawURL); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", rawURL, err)
	}

	client := GetHttpClient(opts...)
	resp, err := DefaultRetryPolicy().do(ctx, client, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: HTTP %d: %s", rawURL, resp.StatusCode, string(body))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	partial := dest + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("creating %s: %w", partial, err)
	}

	var reader io.Reader = resp.Body
	if progress != nil {
		reader = &progressReader{Reader: resp.Body, total: resp.ContentLength, report: progress}
	}

	written, copyErr := io.Copy(f, reader)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(partial)
		if copyErr != nil {
			return fmt.Errorf("streaming %s: %w", rawURL, copyErr)
		}
		return fmt.Errorf("closing %s: %w", partial, closeErr)
	}

	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return fmt.Errorf("committing %s: %w", dest, err)
	}

	if progress != nil {
		progress(written, resp.ContentLength)
	}
	return nil
}

type progressReader struct {
	io.Reader
	total   int64
	written int64
	report  ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.written += int64(n)
	if n > 0 {
		r.report(r.written, r.total)
	}
	return n, err
}

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/clicky/task"
)

// LogPath shortens a path for log lines: relative to the working directory
// when that's shorter, the basename otherwise.
func LogPath(path string) string {
	if path == "" {
		return ""
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Base(absPath)
	}
	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil || len(relPath) > len(absPath) {
		return filepath.Base(absPath)
	}
	return relPath
}

// FormatBytes renders a byte count in human units for progress lines.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ShortenURL trims a URL to its host plus trailing path segment, enough to
// identify a download in a log line without the noise.
func ShortenURL(url string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	parts := strings.Split(trimmed, "/")
	if len(parts) <= 2 {
		return trimmed
	}
	return parts[0] + "/.../" + parts[len(parts)-1]
}

// LogDownloadStart notes the start of a download on the task.
func LogDownloadStart(t *task.Task, url, dest string) {
	if t == nil {
		return
	}
	t.V(3).Infof("Downloading %s -> %s", ShortenURL(url), LogPath(dest))
}

// LogChecksumFetch notes which checksum files are being fetched.
func LogChecksumFetch(t *task.Task, urls []string) {
	if t == nil || len(urls) == 0 {
		return
	}
	shortened := make([]string, 0, len(urls))
	for _, u := range urls {
		shortened = append(shortened, ShortenURL(u))
	}
	t.V(3).Infof("Fetching checksums: %s", strings.Join(shortened, ", "))
}

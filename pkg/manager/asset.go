package manager

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vx-dev/vx/pkg/platform"
)

// ResolveAssetPattern finds the best matching asset pattern for a platform.
// It follows this priority order:
// 1. Exact platform match (e.g., "darwin-arm64")
// 2. Glob patterns (e.g., "darwin-*", "linux-*") and comma-separated
//    patterns (e.g., "darwin-*,windows-*")
// 3. Literal "*" wildcard (all platforms), as the last fallback
func ResolveAssetPattern(assetPatterns map[string]string, plat platform.Platform) (string, error) {
	if len(assetPatterns) == 0 {
		return "", fmt.Errorf("no asset patterns defined")
	}

	platformKey := plat.String() // e.g., "darwin-arm64"

	// 1. Try exact platform match first
	if pattern, exists := assetPatterns[platformKey]; exists {
		return pattern, nil
	}

	// 2. Try glob patterns like "darwin-*", "linux-*" (more specific than "*")
	for patternKey, patternValue := range assetPatterns {
		// Skip literal "*" here - it's handled later
		if patternKey != "*" && (strings.Contains(patternKey, "*") || strings.Contains(patternKey, ",")) {
			if matchPlatformPattern(patternKey, platformKey) {
				return patternValue, nil
			}
		}
	}

	// 3. Try literal "*" wildcard (all platforms) as last fallback
	if pattern, exists := assetPatterns["*"]; exists {
		return pattern, nil
	}

	// No match found
	availablePatterns := make([]string, 0, len(assetPatterns))
	for k := range assetPatterns {
		availablePatterns = append(availablePatterns, k)
	}
	return "", fmt.Errorf("no asset pattern found for platform %s, available patterns: %v", platformKey, availablePatterns)
}

// matchPlatformPattern checks if a platform matches a wildcard pattern.
// Supports comma-separated patterns like "darwin-*,windows-*"
func matchPlatformPattern(pattern string, platform string) bool {
	patterns := strings.Split(pattern, ",")
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if matched, _ := filepath.Match(p, platform); matched {
			return true
		}
	}
	return false
}

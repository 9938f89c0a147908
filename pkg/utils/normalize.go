package utils

import "strings"

// Normalize strips the decorations tags carry around a version number
// (v1.2.3, release-1.2.3, jq-1.7) down to the bare version. pkg/version
// has the authoritative copy of this logic; this one exists for pkg/types,
// which can't import pkg/version without a cycle.
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return version
	}

	for _, prefix := range []string{"version-", "Version-", "release-", "Release-", "v", "V"} {
		version = strings.TrimPrefix(version, prefix)
	}

	// "jq-1.7" -> "1.7": strip a leading name when a version follows.
	if idx := strings.IndexAny(version, "-_"); idx > 0 {
		if rest := version[idx+1:]; startsLikeVersion(rest) {
			version = rest
		}
	}

	version = strings.TrimSuffix(version, "-release")
	version = strings.TrimSuffix(version, "-Release")
	return version
}

func startsLikeVersion(s string) bool {
	if s == "" {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return true
	}
	return len(s) > 1 && (s[0] == 'v' || s[0] == 'V') && s[1] >= '0' && s[1] <= '9'
}

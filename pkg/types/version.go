package types

import (
	"strconv"
	"strings"
)

// String returns the Tag if available, otherwise Version
func (v Version) String() string {
	if v.Tag != "" {
		return v.Tag
	}
	return v.Version
}

// ParseVersion builds a Version from a normalized version string and its
// original tag, populating the numeric components and the prerelease flag.
func ParseVersion(versionStr, tag string) Version {
	v := Version{
		Version:    versionStr,
		Tag:        tag,
		Prerelease: isPrerelease(versionStr),
	}

	// Numeric components ignore build metadata and any leading v.
	parseStr := versionStr
	if idx := strings.Index(parseStr, "+"); idx != -1 {
		parseStr = parseStr[:idx]
	}
	parseStr = strings.TrimPrefix(parseStr, "v")

	parts := strings.Split(parseStr, ".")
	if len(parts) >= 1 {
		v.Major, _ = strconv.ParseInt(parts[0], 10, 64)
	}
	if len(parts) >= 2 {
		v.Minor, _ = strconv.ParseInt(parts[1], 10, 64)
	}
	if len(parts) >= 3 {
		v.Patch, _ = strconv.ParseInt(parts[2], 10, 64)
	}

	return v
}

// isPrerelease checks if a version string indicates a prerelease
func isPrerelease(version string) bool {
	lower := strings.ToLower(version)
	for _, marker := range []string{"alpha", "beta", "rc", "pre", "dev", "nightly", "snapshot", "-ea"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

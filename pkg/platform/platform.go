// Package platform detects the current OS/architecture pair and builds the
// platform-id strings vx uses to scope its content-addressed store.
package platform

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// Platform represents a target OS/Architecture combination.
type Platform struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`
}

// Global overrides for platform detection, set from CLI flags.
var (
	globalOSOverride   string
	globalArchOverride string
	globalMutex        sync.RWMutex
)

// String returns the platform-id used to scope store directories, e.g. "linux-amd64".
func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// SetGlobalOverrides sets global OS and architecture overrides from CLI flags.
func SetGlobalOverrides(osOverride, archOverride string) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalOSOverride = osOverride
	globalArchOverride = archOverride
}

// Current returns the current platform, respecting global overrides and the
// macOS-under-Rosetta native-arch correction.
func Current() Platform {
	globalMutex.RLock()
	os := globalOSOverride
	arch := globalArchOverride
	globalMutex.RUnlock()

	if os == "" {
		os = runtime.GOOS
	}
	if arch == "" {
		arch = nativeArch()
	}

	return Platform{OS: os, Arch: arch}.Normalize()
}

// Parse parses a platform-id string (e.g. "linux-amd64") into a Platform.
func Parse(platformStr string) (Platform, error) {
	parts := strings.SplitN(platformStr, "-", 2)
	if len(parts) != 2 {
		return Platform{}, fmt.Errorf("invalid platform format: %s (expected os-arch)", platformStr)
	}
	return Platform{OS: parts[0], Arch: parts[1]}.Normalize(), nil
}

// ParseList parses a list of platform-id strings.
func ParseList(platforms []string) ([]Platform, error) {
	result := make([]Platform, len(platforms))
	for i, p := range platforms {
		plat, err := Parse(p)
		if err != nil {
			return nil, err
		}
		result[i] = plat
	}
	return result, nil
}

// CommonPlatforms returns the platforms vx locks by default when `vx lock --all` is used.
func CommonPlatforms() []Platform {
	return []Platform{
		{OS: "linux", Arch: "amd64"},
		{OS: "linux", Arch: "arm64"},
		{OS: "linux", Arch: "386"},
		{OS: "linux", Arch: "arm"},
		{OS: "darwin", Arch: "amd64"},
		{OS: "darwin", Arch: "arm64"},
		{OS: "windows", Arch: "amd64"},
		{OS: "windows", Arch: "386"},
		{OS: "windows", Arch: "arm64"},
		{OS: "freebsd", Arch: "amd64"},
	}
}

// Normalize converts OS/Arch aliases into vx's canonical spelling.
func (p Platform) Normalize() Platform {
	return Platform{OS: normalizeOS(p.OS), Arch: normalizeArch(p.Arch)}
}

func normalizeOS(os string) string {
	switch strings.ToLower(os) {
	case "macos", "osx", "mac":
		return "darwin"
	case "win", "win32", "win64":
		return "windows"
	default:
		return strings.ToLower(os)
	}
}

func normalizeArch(arch string) string {
	switch strings.ToLower(arch) {
	case "x86_64", "x64", "amd64":
		return "amd64"
	case "aarch64", "arm64":
		return "arm64"
	case "i386", "i686", "x86":
		return "386"
	case "armv7", "armv7l", "arm":
		return "arm"
	default:
		return strings.ToLower(arch)
	}
}

// IsWindows returns true if the platform is Windows.
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

// BinaryExtension returns the executable suffix for the platform.
func (p Platform) BinaryExtension() string {
	if p.IsWindows() {
		return ".exe"
	}
	return ""
}

// AddExtension appends the platform's binary extension if not already present.
func (p Platform) AddExtension(filename string) string {
	ext := p.BinaryExtension()
	if ext == "" || strings.HasSuffix(filename, ext) {
		return filename
	}
	return filename + ext
}

// Matches reports whether p satisfies a declared `supported_platforms` entry,
// which may itself be under-specified (e.g. {OS: "linux"} matches any arch).
func (p Platform) Matches(supported Platform) bool {
	if supported.OS != "" && supported.OS != p.OS {
		return false
	}
	if supported.Arch != "" && supported.Arch != p.Arch {
		return false
	}
	return true
}

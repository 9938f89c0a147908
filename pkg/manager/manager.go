// Package manager defines the PackageManager interface every version
// source implements (GitHub releases, npm registry, static lists, direct
// URLs, ...) and the name-keyed registry the rest of vx resolves them
// through.
package manager

import (
	"context"
	"sort"
	"strings"

	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
)

// PackageManager is one version source plus its resolution and
// verification hooks. Discovery and resolution are the load-bearing
// operations; Install and Verify exist for managers that bypass the
// shared download pipeline (e.g. `go install`).
type PackageManager interface {
	// Name returns the manager type identifier
	Name() string

	// DiscoverVersions returns the most recent versions for a package,
	// newest first. limit=0 means all versions.
	DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error)

	// Resolve gets the download URL and checksum for a specific version and platform
	Resolve(ctx context.Context, pkg types.Package, version string, platform platform.Platform) (*types.Resolution, error)

	// Install downloads and installs a binary for the given resolution
	Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error

	// GetChecksums retrieves checksums for all platforms for a given version
	GetChecksums(ctx context.Context, pkg types.Package, version string) (map[string]string, error)

	// Verify checks if an installed binary matches the expected version/checksum
	Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error)
}

// Registry maps manager names to implementations.
type Registry struct {
	managers map[string]PackageManager
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{managers: make(map[string]PackageManager)}
}

// Register adds a package manager, replacing any previous one of the same name.
func (r *Registry) Register(manager PackageManager) {
	r.managers[manager.Name()] = manager
}

// Get retrieves a package manager by name
func (r *Registry) Get(name string) (PackageManager, bool) {
	manager, exists := r.managers[name]
	return manager, exists
}

// List returns all registered manager names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.managers))
	for name := range r.managers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetForPackage returns the manager a package's manifest names.
func (r *Registry) GetForPackage(pkg types.Package) (PackageManager, error) {
	manager, exists := r.Get(pkg.Manager)
	if !exists {
		return nil, &ErrManagerNotFound{Manager: pkg.Manager}
	}
	return manager, nil
}

// ErrManagerNotFound is returned when a package names an unregistered manager.
type ErrManagerNotFound struct {
	Manager string
}

func (e *ErrManagerNotFound) Error() string {
	return "package manager not found: " + e.Manager
}

// ErrVersionNotFound is returned when a version is not found
type ErrVersionNotFound struct {
	Package string
	Version string
}

func (e *ErrVersionNotFound) Error() string {
	return e.Version + " not found"
}

// ErrPlatformNotSupported is returned when a platform is not supported
type ErrPlatformNotSupported struct {
	Package            string
	Platform           string
	AvailablePlatforms []string
}

func (e *ErrPlatformNotSupported) Error() string {
	msg := "platform " + e.Platform + " not supported"
	if e.Package != "" {
		msg += " for " + e.Package
	}
	if len(e.AvailablePlatforms) > 0 {
		msg += ", available platforms: " + strings.Join(e.AvailablePlatforms, ", ")
	}
	return msg
}

// ErrChecksumMismatch is returned when checksums don't match
type ErrChecksumMismatch struct {
	Expected string
	Actual   string
	File     string
}

func (e *ErrChecksumMismatch) Error() string {
	return "checksum mismatch for " + e.File + ": expected " + e.Expected + ", got " + e.Actual
}

// ErrAssetNotFound is returned when a release has no asset matching a pattern.
type ErrAssetNotFound struct {
	Package         string
	AssetPattern    string
	Platform        string
	AvailableAssets []string
}

func (e *ErrAssetNotFound) Error() string {
	return "asset not found: " + e.AssetPattern + " for " + e.Platform + " in package " + e.Package
}

// Global package manager registry, populated by each manager's init.
var globalRegistry = NewRegistry()

// Register adds a package manager to the global registry
func Register(manager PackageManager) {
	globalRegistry.Register(manager)
}

// GetGlobalRegistry returns the global package manager registry
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

package url

import (
	"context"
	"fmt"

	"github.com/flanksource/commons/logger"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
)

// LatestOnlyManager implements the PackageManager interface for tools whose
// endpoint reports a single "latest" record instead of a queryable version
// index (e.g. a vendor manifest that only ever describes the current
// release). Discovery returns exactly one version; pinning an older version
// of such a tool is not possible and resolution says so.
type LatestOnlyManager struct {
	inner *URLManager
}

// NewLatestOnlyManager creates a new latest-only manager
func NewLatestOnlyManager() *LatestOnlyManager {
	return &LatestOnlyManager{inner: NewURLManager()}
}

// Name returns the manager identifier
func (m *LatestOnlyManager) Name() string {
	return "latest_only"
}

// DiscoverVersions fetches the single latest record from versions_url
func (m *LatestOnlyManager) DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error) {
	if pkg.VersionsURL == "" {
		return nil, fmt.Errorf("versions_url is required for latest_only manager")
	}

	raw, err := m.inner.fetchIndex(ctx, pkg)
	if err != nil {
		return nil, err
	}

	var versions []types.Version
	if pkg.VersionsExpr != "" {
		versions, err = m.inner.applyVersionsExpr(raw, pkg, plat)
	} else {
		versions, err = m.inner.parseVersions(raw, pkg)
	}
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no version found at %s", pkg.VersionsURL)
	}

	logger.GetLogger().V(2).Infof("Latest version of %s: %s", pkg.Name, versions[0].Version)
	return versions[:1], nil
}

// Resolve gets the download URL for the latest version; requesting any
// other version is an error since the endpoint only describes one.
func (m *LatestOnlyManager) Resolve(ctx context.Context, pkg types.Package, version string, plat platform.Platform) (*types.Resolution, error) {
	versions, err := m.DiscoverVersions(ctx, pkg, plat, 1)
	if err != nil {
		return nil, err
	}

	latest := versions[0]
	if version != "" && version != "latest" && version != "stable" && version != latest.Version {
		return nil, fmt.Errorf("%s only publishes its latest version (%s); %s is not available", pkg.Name, latest.Version, version)
	}

	return m.inner.Resolve(ctx, pkg, latest.Version, plat)
}

// Install downloads and installs the binary
func (m *LatestOnlyManager) Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error {
	return m.inner.Install(ctx, resolution, opts)
}

// GetChecksums is not supported for latest-only endpoints
func (m *LatestOnlyManager) GetChecksums(ctx context.Context, pkg types.Package, version string) (map[string]string, error) {
	return nil, fmt.Errorf("checksums not supported for latest_only manager")
}

// Verify checks if an installed binary matches expectations
func (m *LatestOnlyManager) Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error) {
	return m.inner.Verify(ctx, binaryPath, pkg)
}

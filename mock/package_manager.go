// Package mock provides a predictable PackageManager double for tests
// that exercise registry and resolution behavior without the network.
package mock

import (
	"context"
	"fmt"

	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
)

// MockPackageManager serves a fixed version list and fabricated,
// non-routable resolutions.
type MockPackageManager struct {
	name          string
	versions      []types.Version
	resolveError  error
	installError  error
}

// NewMockPackageManager creates a mock manager with the given name
func NewMockPackageManager(name string) *MockPackageManager {
	return &MockPackageManager{name: name}
}

// WithVersions sets the versions the mock reports, newest first.
func (m *MockPackageManager) WithVersions(versions ...string) *MockPackageManager {
	m.versions = nil
	for _, v := range versions {
		m.versions = append(m.versions, types.ParseVersion(v, v))
	}
	return m
}

// WithResolveError makes Resolve fail with err.
func (m *MockPackageManager) WithResolveError(err error) *MockPackageManager {
	m.resolveError = err
	return m
}

// WithInstallError makes Install fail with err.
func (m *MockPackageManager) WithInstallError(err error) *MockPackageManager {
	m.installError = err
	return m
}

func (m *MockPackageManager) Name() string {
	return m.name
}

func (m *MockPackageManager) DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error) {
	versions := m.versions
	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}
	return versions, nil
}

func (m *MockPackageManager) Resolve(ctx context.Context, pkg types.Package, version string, plat platform.Platform) (*types.Resolution, error) {
	if m.resolveError != nil {
		return nil, m.resolveError
	}

	// file:// keeps any accidental download attempt off the network.
	return &types.Resolution{
		Package:     pkg,
		Version:     version,
		Platform:    plat,
		DownloadURL: fmt.Sprintf("file:///tmp/mock-%s-%s-%s-%s", pkg.Name, version, plat.OS, plat.Arch),
		Checksum:    fmt.Sprintf("sha256:mock-%s", pkg.Name),
	}, nil
}

func (m *MockPackageManager) Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error {
	return m.installError
}

func (m *MockPackageManager) GetChecksums(ctx context.Context, pkg types.Package, version string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (m *MockPackageManager) Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error) {
	return &types.InstalledInfo{Version: version(m), Path: binaryPath, Platform: platform.Current()}, nil
}

func version(m *MockPackageManager) string {
	if len(m.versions) > 0 {
		return m.versions[0].Version
	}
	return "0.0.0"
}

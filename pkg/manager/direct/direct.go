// Package direct serves tools published at predictable URLs with no
// queryable version index: the manifest's url_template is the whole
// contract, so versions must be pinned exactly (or carried by a lock
// file) and discovery is refused rather than guessed at.
package direct

import (
	"context"
	"fmt"
	"strings"

	"github.com/vx-dev/vx/pkg/extract"
	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/platform"
	depstemplate "github.com/vx-dev/vx/pkg/template"
	"github.com/vx-dev/vx/pkg/types"
)

// DirectURLManager implements the PackageManager interface for direct URL downloads
type DirectURLManager struct{}

// NewDirectURLManager creates a new direct URL manager
func NewDirectURLManager() *DirectURLManager {
	return &DirectURLManager{}
}

// Name returns the manager identifier
func (m *DirectURLManager) Name() string {
	return "direct"
}

// DiscoverVersions is refused: a bare URL template has no version index.
func (m *DirectURLManager) DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error) {
	return nil, fmt.Errorf("%s has no version index; pin an exact version", pkg.Name)
}

// templatedAsset renders the platform's asset pattern, "" when the
// manifest declares none.
func templatedAsset(pkg types.Package, version string, plat platform.Platform) (string, error) {
	if len(pkg.AssetPatterns) == 0 {
		return "", nil
	}
	pattern, err := manager.ResolveAssetPattern(pkg.AssetPatterns, plat)
	if err != nil {
		return "", err
	}
	return depstemplate.TemplateURL(pattern, version, plat.OS, plat.Arch)
}

// Resolve renders the download and checksum URLs for a pinned version
func (m *DirectURLManager) Resolve(ctx context.Context, pkg types.Package, version string, plat platform.Platform) (*types.Resolution, error) {
	if pkg.URLTemplate == "" {
		return nil, fmt.Errorf("url_template is required for direct URLs")
	}

	asset, err := templatedAsset(pkg, version, plat)
	if err != nil {
		return nil, err
	}

	downloadURL, err := depstemplate.TemplateURLWithAsset(pkg.URLTemplate, version, plat.OS, plat.Arch, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to template URL: %w", err)
	}

	resolution := &types.Resolution{
		Package:     pkg,
		Version:     version,
		Platform:    plat,
		DownloadURL: downloadURL,
		IsArchive:   extract.IsArchive(downloadURL),
		BinaryPath:  pkg.BinaryPath,
	}

	if pkg.ChecksumFile != "" {
		checksumURL, err := checksumURLFor(pkg.ChecksumFile, downloadURL, version, plat, asset)
		if err == nil && checksumURL != "" {
			resolution.ChecksumURL = checksumURL
		}
	}

	if resolution.IsArchive && resolution.BinaryPath == "" && pkg.BinaryName != "" {
		resolution.BinaryPath = pkg.BinaryName
	}

	return resolution, nil
}

// checksumURLFor renders the manifest's checksum_file: a full URL template
// stands alone, a relative name resolves next to the artifact.
func checksumURLFor(checksumFile, downloadURL, version string, plat platform.Platform, asset string) (string, error) {
	templated, err := depstemplate.TemplateURLWithAsset(checksumFile, version, plat.OS, plat.Arch, asset)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(templated, "https://") || strings.HasPrefix(templated, "http://") {
		return templated, nil
	}
	base := downloadURL[:strings.LastIndex(downloadURL, "/")+1]
	return base + templated, nil
}

// Install downloads and installs the binary
func (m *DirectURLManager) Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error {
	return fmt.Errorf("install method not implemented - use existing pipeline")
}

// GetChecksums is not supported for direct URLs
func (m *DirectURLManager) GetChecksums(ctx context.Context, pkg types.Package, version string) (map[string]string, error) {
	return nil, fmt.Errorf("checksums not supported for direct URLs")
}

// Verify checks if an installed binary matches expectations
func (m *DirectURLManager) Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error) {
	return nil, fmt.Errorf("verify not implemented yet")
}

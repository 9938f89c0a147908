package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/flanksource/commons/logger"
	depshttp "github.com/vx-dev/vx/pkg/httpclient"
	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/vx-dev/vx/pkg/version"
)

const defaultRegistry = "https://registry.npmjs.org"

// NpmManager implements the PackageManager interface for packages published
// to an npm-compatible registry. Versions come from the registry's packument
// (one GET per package: versions map, publish times, dist-tags); resolution
// returns the version's tarball URL and shasum.
type NpmManager struct {
	client   *http.Client
	registry string
}

// NewNpmManager creates a new npm registry manager
func NewNpmManager() *NpmManager {
	return &NpmManager{
		client:   depshttp.GetHttpClient(),
		registry: defaultRegistry,
	}
}

// Name returns the manager identifier
func (m *NpmManager) Name() string {
	return "npm"
}

// packument is the subset of the npm registry's package document we read.
type packument struct {
	DistTags map[string]string             `json:"dist-tags"`
	Versions map[string]packumentVersion   `json:"versions"`
	Time     map[string]string             `json:"time"`
}

type packumentVersion struct {
	Version    string `json:"version"`
	Deprecated string `json:"deprecated,omitempty"`
	Dist       struct {
		Tarball   string `json:"tarball"`
		Shasum    string `json:"shasum"`
		Integrity string `json:"integrity"`
	} `json:"dist"`
}

// packageName returns the registry package name, which may differ from the
// vx tool name (e.g. tool "tsc" published as "typescript") via
// extra.package.
func (m *NpmManager) packageName(pkg types.Package) string {
	if p, ok := pkg.Extra["package"].(string); ok && p != "" {
		return p
	}
	return pkg.Name
}

// registryURL returns the packument URL, honoring an extra.registry
// override for private registries.
func (m *NpmManager) registryURL(pkg types.Package) string {
	registry := m.registry
	if r, ok := pkg.Extra["registry"].(string); ok && r != "" {
		registry = r
	}
	// Scoped packages (@org/name) must keep the slash URL-escaped.
	return registry + "/" + url.PathEscape(m.packageName(pkg))
}

func (m *NpmManager) fetchPackument(ctx context.Context, pkg types.Package) (*packument, error) {
	packumentURL := m.registryURL(pkg)

	req, err := http.NewRequestWithContext(ctx, "GET", packumentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// The abbreviated packument omits the time map, so ask for the full one.
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", packumentURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("npm package %s not found", m.packageName(pkg))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: HTTP %d", packumentURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var doc packument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse packument for %s: %w", m.packageName(pkg), err)
	}
	return &doc, nil
}

// DiscoverVersions returns the package's published versions, newest first,
// with dist-tags carried through as channels so "latest"/"next"-style
// constraints can resolve against them.
func (m *NpmManager) DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error) {
	log := logger.GetLogger()

	doc, err := m.fetchPackument(ctx, pkg)
	if err != nil {
		return nil, err
	}

	// Invert dist-tags so each tagged version knows its channel.
	channelOf := make(map[string]string, len(doc.DistTags))
	for tag, v := range doc.DistTags {
		channelOf[v] = tag
	}

	versions := make([]types.Version, 0, len(doc.Versions))
	for v, entry := range doc.Versions {
		if entry.Deprecated != "" {
			continue
		}

		ver := types.ParseVersion(version.Normalize(v), v)
		ver.Channel = channelOf[v]
		if published, ok := doc.Time[v]; ok {
			if t, err := time.Parse(time.RFC3339, published); err == nil {
				ver.Published = t
			}
		}
		versions = append(versions, ver)
	}

	if pkg.VersionExpr != "" {
		versions, err = version.ApplyVersionExpr(versions, pkg.VersionExpr)
		if err != nil {
			return nil, fmt.Errorf("failed to apply version_expr: %w", err)
		}
	}

	versions = version.FilterToValidSemver(versions)
	version.SortVersions(versions)

	log.V(2).Infof("Discovered %d versions of %s from npm", len(versions), m.packageName(pkg))

	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}
	return versions, nil
}

// Resolve gets the tarball URL and checksum for a specific version
func (m *NpmManager) Resolve(ctx context.Context, pkg types.Package, ver string, plat platform.Platform) (*types.Resolution, error) {
	doc, err := m.fetchPackument(ctx, pkg)
	if err != nil {
		return nil, err
	}

	// A dist-tag ("latest", "next", ...) resolves to the version it points at.
	if tagged, ok := doc.DistTags[ver]; ok {
		ver = tagged
	}

	entry, ok := doc.Versions[ver]
	if !ok {
		// Published versions keep npm's own formatting; retry normalized.
		for v, e := range doc.Versions {
			if version.Normalize(v) == version.Normalize(ver) {
				entry, ok = e, true
				break
			}
		}
	}
	if !ok {
		return nil, &manager.ErrVersionNotFound{Package: m.packageName(pkg), Version: ver}
	}

	resolution := &types.Resolution{
		Package:     pkg,
		Version:     entry.Version,
		Platform:    plat,
		DownloadURL: entry.Dist.Tarball,
		IsArchive:   true, // npm tarballs are always .tgz
		BinaryPath:  pkg.BinaryPath,
	}
	if entry.Dist.Shasum != "" {
		resolution.Checksum = "sha1:" + entry.Dist.Shasum
	}
	return resolution, nil
}

// Install downloads and installs the binary
func (m *NpmManager) Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error {
	return fmt.Errorf("install method not implemented - use existing pipeline")
}

// GetChecksums returns the registry shasum for every platform (npm tarballs
// are platform-independent, so each platform shares one checksum).
func (m *NpmManager) GetChecksums(ctx context.Context, pkg types.Package, ver string) (map[string]string, error) {
	resolution, err := m.Resolve(ctx, pkg, ver, platform.Platform{})
	if err != nil {
		return nil, err
	}
	if resolution.Checksum == "" {
		return nil, fmt.Errorf("no checksum published for %s@%s", m.packageName(pkg), ver)
	}
	return map[string]string{"*": resolution.Checksum}, nil
}

// Verify checks if an installed binary matches expectations
func (m *NpmManager) Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error) {
	return nil, fmt.Errorf("verify not implemented yet")
}

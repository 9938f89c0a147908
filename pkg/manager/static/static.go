package static

import (
	"context"
	"fmt"

	"github.com/vx-dev/vx/pkg/extract"
	"github.com/vx-dev/vx/pkg/platform"
	depstemplate "github.com/vx-dev/vx/pkg/template"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/vx-dev/vx/pkg/version"
)

// StaticManager implements the PackageManager interface for tools without a
// queryable version index: the manifest declares the known versions inline
// under extra.versions, either as plain strings or as dicts carrying a
// per-version url/checksum.
type StaticManager struct{}

// NewStaticManager creates a new static version-list manager
func NewStaticManager() *StaticManager {
	return &StaticManager{}
}

// Name returns the manager identifier
func (m *StaticManager) Name() string {
	return "static"
}

// declared returns the manifest's version list, preserving declaration
// order before sorting.
func (m *StaticManager) declared(pkg types.Package) ([]staticVersion, error) {
	raw, ok := pkg.Extra["versions"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("extra.versions is required for static manager")
	}

	out := make([]staticVersion, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, staticVersion{Version: v})
		case map[string]interface{}:
			var sv staticVersion
			if s, ok := v["version"].(string); ok {
				sv.Version = s
			}
			if s, ok := v["url"].(string); ok {
				sv.URL = s
			}
			if s, ok := v["checksum"].(string); ok {
				sv.Checksum = s
			}
			if sv.Version == "" {
				return nil, fmt.Errorf("static version entry missing a version field")
			}
			out = append(out, sv)
		default:
			return nil, fmt.Errorf("static version entry must be a string or dict, got %T", item)
		}
	}
	return out, nil
}

type staticVersion struct {
	Version  string
	URL      string
	Checksum string
}

// DiscoverVersions returns the declared version list, newest first
func (m *StaticManager) DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error) {
	declared, err := m.declared(pkg)
	if err != nil {
		return nil, err
	}

	versions := make([]types.Version, 0, len(declared))
	for _, sv := range declared {
		versions = append(versions, types.ParseVersion(version.Normalize(sv.Version), sv.Version))
	}

	version.SortVersions(versions)
	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}
	return versions, nil
}

// Resolve gets the download URL for a specific declared version, from the
// entry's own url when present, falling back to the package url_template.
func (m *StaticManager) Resolve(ctx context.Context, pkg types.Package, ver string, plat platform.Platform) (*types.Resolution, error) {
	declared, err := m.declared(pkg)
	if err != nil {
		return nil, err
	}

	var match *staticVersion
	for i := range declared {
		if version.Normalize(declared[i].Version) == version.Normalize(ver) {
			match = &declared[i]
			break
		}
	}
	if match == nil {
		return nil, fmt.Errorf("version %s is not declared for %s", ver, pkg.Name)
	}

	downloadURL := match.URL
	if downloadURL == "" {
		if pkg.URLTemplate == "" {
			return nil, fmt.Errorf("url_template is required when a static version declares no url")
		}
		downloadURL, err = depstemplate.TemplateURL(pkg.URLTemplate, match.Version, plat.OS, plat.Arch)
		if err != nil {
			return nil, fmt.Errorf("failed to template URL: %w", err)
		}
	} else {
		downloadURL, err = depstemplate.TemplateURL(downloadURL, match.Version, plat.OS, plat.Arch)
		if err != nil {
			return nil, fmt.Errorf("failed to template URL: %w", err)
		}
	}

	return &types.Resolution{
		Package:     pkg,
		Version:     match.Version,
		Platform:    plat,
		DownloadURL: downloadURL,
		Checksum:    match.Checksum,
		IsArchive:   extract.IsArchive(downloadURL),
		BinaryPath:  pkg.BinaryPath,
	}, nil
}

// Install downloads and installs the binary
func (m *StaticManager) Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error {
	return fmt.Errorf("install method not implemented - use existing pipeline")
}

// GetChecksums returns the declared checksums, keyed per declared version
func (m *StaticManager) GetChecksums(ctx context.Context, pkg types.Package, ver string) (map[string]string, error) {
	declared, err := m.declared(pkg)
	if err != nil {
		return nil, err
	}
	for _, sv := range declared {
		if version.Normalize(sv.Version) == version.Normalize(ver) && sv.Checksum != "" {
			return map[string]string{"*": sv.Checksum}, nil
		}
	}
	return nil, fmt.Errorf("no checksum declared for %s@%s", pkg.Name, ver)
}

// Verify checks if an installed binary matches expectations
func (m *StaticManager) Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error) {
	return nil, fmt.Errorf("verify not implemented yet")
}

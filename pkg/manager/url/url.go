// Package url serves tools whose vendor publishes a JSON version index at
// a known endpoint. The manifest points versions_url at the index and,
// when the document isn't a plain list of versions, supplies a CEL
// versions_expr that maps it to {version, url?, checksum?, asset?}
// records; resolution then uses the record's own URL or falls back to
// url_template.
package url

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/vx-dev/vx/pkg/extract"
	depshttp "github.com/vx-dev/vx/pkg/httpclient"
	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/platform"
	depstemplate "github.com/vx-dev/vx/pkg/template"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/vx-dev/vx/pkg/version"
)

// versionMetadata carries the per-version url/checksum/asset a
// versions_expr surfaced, keyed so Resolve can reuse it without refetching.
type versionMetadata struct {
	URL      string
	Checksum string
	Asset    string
}

// URLManager implements the PackageManager interface for JSON version endpoints
type URLManager struct {
	client   *http.Client
	metadata map[string]map[string]*versionMetadata // pkg name -> version -> metadata
}

// NewURLManager creates a new URL manager
func NewURLManager() *URLManager {
	return &URLManager{
		client:   depshttp.GetHttpClient(),
		metadata: make(map[string]map[string]*versionMetadata),
	}
}

// Name returns the manager identifier
func (m *URLManager) Name() string {
	return "url"
}

// fetchIndex downloads and parses the JSON version index.
func (m *URLManager) fetchIndex(ctx context.Context, pkg types.Package) (interface{}, error) {
	if pkg.VersionsURL == "" {
		return nil, fmt.Errorf("versions_url is required for url manager")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pkg.VersionsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch versions from %s: %w", pkg.VersionsURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch versions: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return raw, nil
}

// DiscoverVersions fetches the index and maps it to versions, newest first
func (m *URLManager) DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error) {
	raw, err := m.fetchIndex(ctx, pkg)
	if err != nil {
		return nil, err
	}

	var versions []types.Version
	if pkg.VersionsExpr != "" {
		versions, err = m.applyVersionsExpr(raw, pkg, plat)
		if err != nil {
			return nil, fmt.Errorf("failed to parse versions with versions_expr: %w", err)
		}
	} else {
		versions, err = m.parseVersions(raw, pkg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse versions: %w", err)
		}
	}

	if pkg.VersionExpr != "" {
		versions, err = version.ApplyVersionExpr(versions, pkg.VersionExpr)
		if err != nil {
			return nil, fmt.Errorf("failed to apply version_expr: %w", err)
		}
	}

	versions = version.FilterToValidSemver(versions)
	version.SortVersions(versions)

	logger.GetLogger().V(2).Infof("Discovered %d versions from %s", len(versions), pkg.VersionsURL)

	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}
	return versions, nil
}

// parseVersions maps the plain index shapes: a list of version strings, a
// list of {version, tag, prerelease} objects, or either wrapped in a
// {"versions": [...]} envelope. Order is preserved; sorting is the
// caller's concern.
func (m *URLManager) parseVersions(data interface{}, pkg types.Package) ([]types.Version, error) {
	switch v := data.(type) {
	case []interface{}:
		var versions []types.Version
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				versions = append(versions, types.ParseVersion(version.Normalize(entry), entry))
			case map[string]interface{}:
				if parsed, ok := parseVersionObject(entry); ok {
					versions = append(versions, parsed)
				}
			}
		}
		return versions, nil
	case map[string]interface{}:
		if wrapped, ok := v["versions"].([]interface{}); ok {
			return m.parseVersions(wrapped, pkg)
		}
		return nil, fmt.Errorf("unsupported JSON structure: object without a versions list")
	default:
		return nil, fmt.Errorf("unsupported JSON structure: %T", data)
	}
}

func parseVersionObject(obj map[string]interface{}) (types.Version, bool) {
	var v types.Version
	if s, ok := obj["version"].(string); ok {
		v.Version = version.Normalize(s)
		v.Tag = s
	}
	if s, ok := obj["tag"].(string); ok {
		v.Tag = s
		if v.Version == "" {
			v.Version = version.Normalize(s)
		}
	}
	if v.Version == "" {
		return v, false
	}
	if p, ok := obj["prerelease"].(bool); ok {
		v.Prerelease = p
	} else {
		v.Prerelease = types.ParseVersion(v.Version, v.Tag).Prerelease
	}
	return v, true
}

// applyVersionsExpr evaluates the manifest's CEL mapping over the parsed
// index. The expression sees `json`, `os`, and `arch`, and returns a list
// of {version, url?, checksum?, asset?} records; the extras are stashed
// per version for Resolve.
func (m *URLManager) applyVersionsExpr(data interface{}, pkg types.Package, plat platform.Platform) ([]types.Version, error) {
	env, err := cel.NewEnv(
		cel.Variable("json", cel.DynType),
		cel.Variable("os", cel.StringType),
		cel.Variable("arch", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("creating versions_expr environment: %w", err)
	}

	ast, issues := env.Compile(pkg.VersionsExpr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling versions_expr: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building versions_expr: %w", err)
	}
	out, _, err := prg.Eval(map[string]interface{}{"json": data, "os": plat.OS, "arch": plat.Arch})
	if err != nil {
		return nil, fmt.Errorf("evaluating versions_expr: %w", err)
	}

	records, ok := nativeValue(out).([]interface{})
	if !ok {
		return nil, fmt.Errorf("versions_expr must return a list of records")
	}

	if m.metadata[pkg.Name] == nil {
		m.metadata[pkg.Name] = make(map[string]*versionMetadata)
	}

	var versions []types.Version
	for _, item := range records {
		record, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		versionStr, _ := record["version"].(string)
		if versionStr == "" {
			continue
		}

		v := types.ParseVersion(version.Normalize(versionStr), versionStr)
		if p, ok := record["prerelease"].(bool); ok {
			v.Prerelease = p
		}
		versions = append(versions, v)

		meta := &versionMetadata{}
		meta.URL, _ = record["url"].(string)
		meta.Checksum, _ = record["checksum"].(string)
		meta.Asset, _ = record["asset"].(string)
		if meta.URL != "" || meta.Checksum != "" || meta.Asset != "" {
			m.metadata[pkg.Name][v.Version] = meta
		}
	}
	return versions, nil
}

// nativeValue unwraps CEL results into plain Go values.
func nativeValue(v ref.Val) interface{} {
	switch val := v.(type) {
	case traits.Mapper:
		out := map[string]interface{}{}
		it := val.Iterator()
		for it.HasNext() == celtypes.True {
			k := it.Next()
			out[fmt.Sprint(k.Value())] = nativeValue(val.Get(k))
		}
		return out
	case traits.Lister:
		out := []interface{}{}
		it := val.Iterator()
		for it.HasNext() == celtypes.True {
			out = append(out, nativeValue(it.Next()))
		}
		return out
	default:
		return v.Value()
	}
}

// Resolve builds the download URL for a version, preferring metadata the
// versions_expr recorded over the manifest's url_template.
func (m *URLManager) Resolve(ctx context.Context, pkg types.Package, ver string, plat platform.Platform) (*types.Resolution, error) {
	var downloadURL, checksum, asset string
	if meta, ok := m.metadata[pkg.Name][version.Normalize(ver)]; ok {
		downloadURL, checksum, asset = meta.URL, meta.Checksum, meta.Asset
	}

	if downloadURL == "" {
		if pkg.URLTemplate == "" {
			return nil, fmt.Errorf("url_template is required for url manager when versions_expr doesn't provide URL")
		}

		if asset == "" && len(pkg.AssetPatterns) > 0 {
			pattern, err := manager.ResolveAssetPattern(pkg.AssetPatterns, plat)
			if err != nil {
				return nil, err
			}
			asset, err = depstemplate.TemplateURL(pattern, ver, plat.OS, plat.Arch)
			if err != nil {
				return nil, fmt.Errorf("failed to template asset pattern: %w", err)
			}
		}

		var err error
		downloadURL, err = depstemplate.TemplateURLWithAsset(pkg.URLTemplate, ver, plat.OS, plat.Arch, asset)
		if err != nil {
			return nil, fmt.Errorf("failed to template URL: %w", err)
		}
	}

	resolution := &types.Resolution{
		Package:     pkg,
		Version:     ver,
		Platform:    plat,
		DownloadURL: downloadURL,
		Checksum:    checksum,
		IsArchive:   extract.IsArchive(downloadURL),
		BinaryPath:  pkg.BinaryPath,
	}

	if resolution.Checksum == "" && pkg.ChecksumFile != "" {
		templated, err := depstemplate.TemplateURLWithAsset(pkg.ChecksumFile, ver, plat.OS, plat.Arch, asset)
		if err == nil && templated != "" {
			if strings.HasPrefix(templated, "https://") || strings.HasPrefix(templated, "http://") {
				resolution.ChecksumURL = templated
			} else {
				resolution.ChecksumURL = downloadURL[:strings.LastIndex(downloadURL, "/")+1] + templated
			}
		}
	}

	return resolution, nil
}

// Install downloads and installs the binary
func (m *URLManager) Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error {
	return fmt.Errorf("install method not implemented - use existing pipeline")
}

// GetChecksums is not supported for URL manager
func (m *URLManager) GetChecksums(ctx context.Context, pkg types.Package, ver string) (map[string]string, error) {
	return nil, fmt.Errorf("checksums not supported for url manager")
}

// Verify checks if an installed binary matches expectations
func (m *URLManager) Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error) {
	return nil, fmt.Errorf("verify not implemented yet")
}

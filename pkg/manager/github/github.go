package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
	gh "github.com/google/go-github/v57/github"
	"github.com/vx-dev/vx/pkg/extract"
	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/platform"
	depstemplate "github.com/vx-dev/vx/pkg/template"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/vx-dev/vx/pkg/version"
)

const releasesPerPage = 50

// GitHubReleaseManager implements the PackageManager interface over the
// GitHub releases API: versions come from release tags (drafts always
// skipped, prereleases only when the manifest opts in), resolution picks a
// release asset via the manifest's platform asset patterns.
type GitHubReleaseManager struct {
	client *GitHubClient
}

// NewGitHubReleaseManager creates a release manager over the shared client
func NewGitHubReleaseManager() *GitHubReleaseManager {
	return &GitHubReleaseManager{client: GetClient()}
}

// Name returns the manager identifier
func (m *GitHubReleaseManager) Name() string {
	return "github_release"
}

// splitRepo parses the manifest's "owner/repo" reference.
func splitRepo(pkg types.Package) (owner, repo string, err error) {
	parts := strings.SplitN(pkg.Repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repo must be in owner/repo format, got %q", pkg.Repo)
	}
	return parts[0], parts[1], nil
}

// includePrereleases reports whether the manifest opts this package into
// prerelease tags.
func includePrereleases(pkg types.Package) bool {
	v, ok := pkg.Extra["include_prereleases"].(bool)
	return ok && v
}

// DiscoverVersions pages through the repository's releases, newest first
func (m *GitHubReleaseManager) DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error) {
	owner, repo, err := splitRepo(pkg)
	if err != nil {
		return nil, err
	}

	var versions []types.Version
	opts := &gh.ListOptions{PerPage: releasesPerPage}
	for {
		releases, resp, err := m.client.Client().Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			if isRateLimitError(err) {
				return nil, rateLimitErrorWithHint(err)
			}
			return nil, fmt.Errorf("listing releases for %s/%s: %w", owner, repo, err)
		}

		for _, release := range releases {
			if release.GetDraft() {
				continue
			}
			if release.GetPrerelease() && !includePrereleases(pkg) {
				continue
			}
			tag := release.GetTagName()
			if tag == "" {
				continue
			}

			v := types.ParseVersion(version.Normalize(tag), tag)
			v.Prerelease = v.Prerelease || release.GetPrerelease()
			v.Published = release.GetPublishedAt().Time
			versions = append(versions, v)
		}

		if resp.NextPage == 0 || (limit > 0 && len(versions) >= limit) {
			break
		}
		opts.Page = resp.NextPage
	}

	if pkg.VersionExpr != "" {
		versions, err = version.ApplyVersionExpr(versions, pkg.VersionExpr)
		if err != nil {
			return nil, fmt.Errorf("failed to apply version_expr: %w", err)
		}
	}

	versions = version.FilterToValidSemver(versions)
	version.SortVersions(versions)

	logger.GetLogger().V(2).Infof("Discovered %d release versions for %s/%s", len(versions), owner, repo)

	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}
	return versions, nil
}

// findRelease locates the release for a requested version, trying the tag
// as given plus the usual v-prefix variants.
func (m *GitHubReleaseManager) findRelease(ctx context.Context, owner, repo, ver string) (*gh.RepositoryRelease, error) {
	candidates := []string{ver}
	normalized := version.Normalize(ver)
	if normalized != ver {
		candidates = append(candidates, normalized)
	}
	if !strings.HasPrefix(ver, "v") {
		candidates = append(candidates, "v"+normalized)
	}

	var lastErr error
	for _, tag := range candidates {
		release, _, err := m.client.Client().Repositories.GetReleaseByTag(ctx, owner, repo, tag)
		if err == nil {
			return release, nil
		}
		if isRateLimitError(err) {
			return nil, rateLimitErrorWithHint(err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("release for %s not found in %s/%s (tried %s): %w",
		ver, owner, repo, strings.Join(candidates, ", "), lastErr)
}

// selectAsset matches the platform's templated asset pattern against the
// release's assets: exact name first, then glob, with a closest-name
// suggestion folded into the failure.
func selectAsset(release *gh.RepositoryRelease, pattern string) (*gh.ReleaseAsset, error) {
	var names []string
	for _, asset := range release.Assets {
		name := asset.GetName()
		names = append(names, name)
		if name == pattern {
			return asset, nil
		}
	}
	for _, asset := range release.Assets {
		if ok, _ := doublestar.Match(pattern, asset.GetName()); ok {
			return asset, nil
		}
	}

	err := fmt.Errorf("asset %q not found in release %s", pattern, release.GetTagName())
	if suggestion := manager.SuggestClosestAsset(pattern, names); suggestion != "" {
		err = fmt.Errorf("%w (closest match: %s)", err, suggestion)
	}
	return nil, err
}

// Resolve picks the download asset for a version and platform
func (m *GitHubReleaseManager) Resolve(ctx context.Context, pkg types.Package, ver string, plat platform.Platform) (*types.Resolution, error) {
	owner, repo, err := splitRepo(pkg)
	if err != nil {
		return nil, err
	}

	release, err := m.findRelease(ctx, owner, repo, ver)
	if err != nil {
		if isRateLimitHint(err) {
			return m.fallbackResolution(pkg, ver, plat, err)
		}
		return nil, err
	}
	tag := release.GetTagName()

	pattern, err := manager.ResolveAssetPattern(pkg.AssetPatterns, plat)
	if err != nil {
		return nil, err
	}
	pattern, err = depstemplate.TemplateURL(pattern, version.Normalize(tag), plat.OS, plat.Arch)
	if err != nil {
		return nil, fmt.Errorf("failed to template asset pattern: %w", err)
	}

	asset, err := selectAsset(release, pattern)
	if err != nil {
		return nil, err
	}

	resolution := &types.Resolution{
		Package:     pkg,
		Version:     version.Normalize(tag),
		Platform:    plat,
		DownloadURL: asset.GetBrowserDownloadURL(),
		Size:        int64(asset.GetSize()),
		IsArchive:   extract.IsArchive(asset.GetName()),
		BinaryPath:  pkg.BinaryPath,
		GitHubAsset: &types.GitHubAsset{
			Repo:        pkg.Repo,
			Tag:         tag,
			AssetName:   asset.GetName(),
			AssetID:     asset.GetID(),
			DownloadURL: asset.GetBrowserDownloadURL(),
		},
	}

	// A checksum file named in the manifest rides in the same release.
	if pkg.ChecksumFile != "" && !strings.Contains(pkg.ChecksumFile, "://") {
		for _, candidate := range strings.Split(pkg.ChecksumFile, ",") {
			candidate = strings.TrimSpace(candidate)
			templated, err := depstemplate.TemplateURLWithAsset(candidate, version.Normalize(tag), plat.OS, plat.Arch, asset.GetName())
			if err != nil {
				continue
			}
			if checksumAsset, err := selectAsset(release, templated); err == nil {
				resolution.ChecksumURL = checksumAsset.GetBrowserDownloadURL()
				break
			}
		}
	}

	return resolution, nil
}

// fallbackResolution builds a best-effort resolution from url_template and
// fallback_version when the API is rate limited, so an unauthenticated
// install of a pinned tool can still proceed.
func (m *GitHubReleaseManager) fallbackResolution(pkg types.Package, ver string, plat platform.Platform, cause error) (*types.Resolution, error) {
	if pkg.URLTemplate == "" {
		return nil, cause
	}
	if ver == "" || ver == "latest" || ver == "stable" {
		if pkg.FallbackVersion == "" {
			return nil, cause
		}
		ver = pkg.FallbackVersion
	}

	downloadURL, err := depstemplate.TemplateURL(pkg.URLTemplate, version.Normalize(ver), plat.OS, plat.Arch)
	if err != nil {
		return nil, cause
	}

	logger.Warnf("GitHub API rate limited; falling back to url_template for %s@%s", pkg.Name, ver)
	return &types.Resolution{
		Package:     pkg,
		Version:     version.Normalize(ver),
		Platform:    plat,
		DownloadURL: downloadURL,
		IsArchive:   extract.IsArchive(downloadURL),
		BinaryPath:  pkg.BinaryPath,
	}, nil
}

// Install downloads and installs the binary
func (m *GitHubReleaseManager) Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error {
	return fmt.Errorf("install method not implemented - use existing pipeline")
}

// GetChecksums retrieves checksums for all platforms for a given version
func (m *GitHubReleaseManager) GetChecksums(ctx context.Context, pkg types.Package, ver string) (map[string]string, error) {
	return nil, fmt.Errorf("checksums are resolved per-platform from the release's checksum asset")
}

// Verify checks if an installed binary matches expectations
func (m *GitHubReleaseManager) Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error) {
	return nil, fmt.Errorf("verify not implemented yet")
}

// isRateLimitError recognizes the API's rate-limit responses.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "403 API rate")
}

// rateLimitErrorWithHint decorates a rate-limit failure with the remedy.
func rateLimitErrorWithHint(err error) error {
	return fmt.Errorf("GitHub API rate limit exceeded: %w\nSet GITHUB_TOKEN to raise the limit", err)
}

func isRateLimitHint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "rate limit exceeded")
}

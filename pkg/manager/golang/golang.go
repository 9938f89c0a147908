// Package golang installs tools the Go toolchain builds from source:
// instead of downloading a release asset, Install shells out to
// `go install <import_path>@<version>` with GOBIN pointed at the target
// bin directory. Version discovery rides on the tool's GitHub repository.
package golang

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/vx-dev/vx/pkg/manager/github"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
)

// GoManager implements the PackageManager interface for go-install tools
type GoManager struct {
	releases *github.GitHubReleaseManager
}

// NewGoManager creates a new Go manager
func NewGoManager() *GoManager {
	return &GoManager{releases: github.NewGitHubReleaseManager()}
}

// Name returns the manager identifier
func (m *GoManager) Name() string {
	return "go"
}

// importPath reads the module path to build from the manifest's extras.
func importPath(pkg types.Package) (string, error) {
	if p, ok := pkg.Extra["import_path"].(string); ok && p != "" {
		return p, nil
	}
	return "", fmt.Errorf("go packages require extra.import_path")
}

// DiscoverVersions lists the repository's release tags
func (m *GoManager) DiscoverVersions(ctx context.Context, pkg types.Package, plat platform.Platform, limit int) ([]types.Version, error) {
	if pkg.Repo == "" {
		return nil, fmt.Errorf("repo is required for go packages")
	}
	return m.releases.DiscoverVersions(ctx, pkg, plat, limit)
}

// Resolve returns a download-free resolution; Install does the work.
func (m *GoManager) Resolve(ctx context.Context, pkg types.Package, version string, plat platform.Platform) (*types.Resolution, error) {
	if _, err := importPath(pkg); err != nil {
		return nil, err
	}
	return &types.Resolution{
		Package:  pkg,
		Version:  version,
		Platform: plat,
	}, nil
}

// Install builds the tool with `go install`, targeting opts.BinDir
func (m *GoManager) Install(ctx context.Context, resolution *types.Resolution, opts types.InstallOptions) error {
	path, err := importPath(resolution.Package)
	if err != nil {
		return err
	}
	if opts.BinDir == "" {
		return fmt.Errorf("bin_dir is required for go package installation")
	}
	if err := os.MkdirAll(opts.BinDir, 0o755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "go", "install", fmt.Sprintf("%s@%s", path, resolution.Version))
	cmd.Env = append(os.Environ(), "GOBIN="+opts.BinDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go install %s: %w", path, err)
	}
	return nil
}

// GetChecksums is not applicable: the toolchain builds from source.
func (m *GoManager) GetChecksums(ctx context.Context, pkg types.Package, version string) (map[string]string, error) {
	return map[string]string{}, nil
}

// Verify confirms the built binary exists.
func (m *GoManager) Verify(ctx context.Context, binaryPath string, pkg types.Package) (*types.InstalledInfo, error) {
	info, err := os.Stat(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("binary not found: %s", binaryPath)
	}
	return &types.InstalledInfo{
		Path:    binaryPath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

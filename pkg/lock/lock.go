// Package lock pins a project's resolved tool versions: for every declared
// dependency it resolves the constraint to a concrete version, then
// records the per-platform download URL, checksum, and archive shape, so a
// later sync reproduces exactly this resolution without consulting any
// version source.
package lock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/flanksource/clicky/task"
	"github.com/sirupsen/logrus"
	"github.com/vx-dev/vx/pkg/checksum"
	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/vx-dev/vx/pkg/version"
)

// Generator resolves and pins dependencies against a manager registry.
type Generator struct {
	managers  *manager.Registry
	discovery *checksum.Discovery
	log       *logrus.Entry
}

// NewGenerator creates a lock file generator
func NewGenerator(managers *manager.Registry) *Generator {
	return &Generator{
		managers:  managers,
		discovery: checksum.NewDiscovery(),
		log:       logrus.WithField("component", "lock"),
	}
}

// platformsFor decides which platforms an entry pins: everything common,
// an explicit list, or just the machine running the command.
func platformsFor(opts types.LockOptions) ([]platform.Platform, error) {
	switch {
	case opts.All:
		return platform.CommonPlatforms(), nil
	case len(opts.Platforms) > 0:
		return platform.ParseList(opts.Platforms)
	default:
		return []platform.Platform{platform.Current()}, nil
	}
}

// selected filters the dependency set down to opts.Packages when given.
func selected(deps map[string]string, opts types.LockOptions) []string {
	var names []string
	if len(opts.Packages) > 0 {
		for _, name := range opts.Packages {
			if _, ok := deps[name]; ok {
				names = append(names, name)
			}
		}
	} else {
		for name := range deps {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Generate resolves every selected dependency and returns the lock file.
// Failures are per-dependency: one unresolvable tool is reported and
// skipped rather than aborting the rest.
func (g *Generator) Generate(ctx context.Context, deps map[string]string, registry map[string]types.Package, opts types.LockOptions, mainTask *task.Task) (*types.LockFile, error) {
	platforms, err := platformsFor(opts)
	if err != nil {
		return nil, err
	}

	lockFile := &types.LockFile{
		Version:         "1.0",
		Dependencies:    make(map[string]types.LockEntry),
		Generated:       time.Now().UTC(),
		CurrentPlatform: platform.Current(),
	}

	var failed []string
	for _, name := range selected(deps, opts) {
		pkg, ok := registry[name]
		if !ok {
			if mainTask != nil {
				mainTask.Errorf("Package %s not found in registry", name)
			}
			failed = append(failed, name)
			continue
		}

		entry, err := g.lockDependency(ctx, name, pkg, deps[name], platforms, mainTask)
		if err != nil {
			g.log.WithField("package", name).WithError(err).Warn("could not lock dependency")
			if mainTask != nil {
				mainTask.Errorf("Failed to lock %s: %v", name, err)
			}
			failed = append(failed, name)
			continue
		}
		lockFile.Dependencies[name] = *entry
	}

	if len(lockFile.Dependencies) == 0 && len(failed) > 0 {
		return nil, fmt.Errorf("no dependencies could be locked (failed: %v)", failed)
	}
	return lockFile, nil
}

// lockDependency resolves one dependency's constraint and pins every
// requested platform.
func (g *Generator) lockDependency(ctx context.Context, name string, pkg types.Package, constraint string, platforms []platform.Platform, t *task.Task) (*types.LockEntry, error) {
	mgr, err := g.managers.GetForPackage(pkg)
	if err != nil {
		return nil, err
	}

	resolved := constraint
	if constraint == "" {
		resolved = "latest"
	}
	// Direct-URL tools have no index to resolve against; their constraint
	// IS the version.
	if mgr.Name() != "direct" {
		resolver := version.NewResolver(mgr)
		resolved, err = resolver.ResolveConstraint(ctx, pkg, resolved, platform.Current())
		if err != nil {
			return nil, fmt.Errorf("resolving constraint %q: %w", constraint, err)
		}
	}
	resolved = version.Normalize(resolved)

	if t != nil {
		t.Infof("Locking %s@%s", name, resolved)
	}
	g.log.WithFields(logrus.Fields{"package": name, "version": resolved}).Debug("locking")

	entry := &types.LockEntry{
		Version:        resolved,
		VersionCommand: pkg.VersionCommand,
		VersionRegex:   pkg.VersionRegex,
		Platforms:      make(map[string]types.PlatformEntry),
	}

	for _, plat := range platforms {
		resolution, err := mgr.Resolve(ctx, pkg, resolved, plat)
		if err != nil {
			g.log.WithFields(logrus.Fields{"package": name, "platform": plat.String()}).
				WithError(err).Debug("platform not resolvable, skipped")
			continue
		}

		platEntry := types.PlatformEntry{
			URL:        resolution.DownloadURL,
			Checksum:   resolution.Checksum,
			Size:       resolution.Size,
			Archive:    resolution.IsArchive,
			BinaryPath: resolution.BinaryPath,
		}

		if platEntry.Checksum == "" {
			platEntry.Checksum, platEntry.Size = g.findChecksum(ctx, resolution)
		}

		entry.Platforms[plat.String()] = platEntry

		if resolution.GitHubAsset != nil && entry.GitHub == nil {
			entry.GitHub = &types.GitHubLockInfo{
				Repo:         resolution.GitHubAsset.Repo,
				Tag:          resolution.GitHubAsset.Tag,
				ChecksumFile: pkg.ChecksumFile,
			}
		}
	}

	if len(entry.Platforms) == 0 {
		return nil, fmt.Errorf("no platform could be resolved for %s@%s", name, resolved)
	}
	return entry, nil
}

// findChecksum locates a publisher checksum for the resolution, falling
// back to downloading and hashing the artifact itself.
func (g *Generator) findChecksum(ctx context.Context, resolution *types.Resolution) (string, int64) {
	if sums, err := g.discovery.FindChecksums(ctx, resolution); err == nil {
		key := resolution.DownloadURL
		if resolution.GitHubAsset != nil {
			key = resolution.GitHubAsset.AssetName
		}
		for name, sum := range sums {
			if name == key || len(sums) == 1 {
				return sum, resolution.Size
			}
		}
	}

	sum, size, err := checksum.CalculateFileChecksum(ctx, resolution.DownloadURL)
	if err != nil {
		g.log.WithError(err).Debug("checksum fallback failed")
		return "", resolution.Size
	}
	return sum, size
}

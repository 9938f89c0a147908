package project

import (
	"context"
	"fmt"

	"github.com/vx-dev/vx/pkg/types"
)

// SyncResult reports what Sync did, so the CLI layer can render a summary.
type SyncResult struct {
	Installed []string
	Removed   []string
}

// Installer is the subset of the installation engine Sync needs,
// scoped down so this package doesn't have to import the full installer
// dependency graph just to drive it.
type Installer interface {
	Install(ctx context.Context, name string, pkg types.Package, version string) error
	Remove(ctx context.Context, name, version string) error
}

// Sync installs every dependency pinned in the project's lock file (it
// returns an error when no lock file exists yet), and, only when
// Settings.Clean opts in, removes store entries for dependencies that
// used to be in the lock file but no longer are. It never removes anything
// outside this project's own locked dependency set: a shared tool another
// project depends on is never swept just because this project stopped
// using it.
func Sync(ctx context.Context, p *Project, inst Installer, previous *types.LockFile) (SyncResult, error) {
	lock, err := ReadLockFile(p.LockPath())
	if err != nil {
		return SyncResult{}, err
	}
	if lock == nil {
		return SyncResult{}, fmt.Errorf("no lock file at %s; run `vx lock` first", p.LockPath())
	}

	var result SyncResult
	for name, entry := range lock.Dependencies {
		pkg, ok := p.Manifest.Registry[name]
		if !ok {
			return result, fmt.Errorf("dependency %s has no registry entry in %s", name, ManifestFile)
		}
		if err := inst.Install(ctx, name, pkg, entry.Version); err != nil {
			return result, fmt.Errorf("installing %s@%s: %w", name, entry.Version, err)
		}
		result.Installed = append(result.Installed, name)
	}

	if p.Manifest.Settings.Clean && previous != nil {
		for name, entry := range previous.Dependencies {
			if _, stillLocked := lock.Dependencies[name]; stillLocked {
				continue
			}
			if err := inst.Remove(ctx, name, entry.Version); err != nil {
				return result, fmt.Errorf("removing orphaned dependency %s: %w", name, err)
			}
			result.Removed = append(result.Removed, name)
		}
	}

	return result, nil
}

package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/shim"
	"github.com/vx-dev/vx/pkg/store"
)

// commitToStore mirrors a freshly installed tool into vx's content-addressed
// store so the runtime dispatcher can resolve <tool>@<version> under
// store/<tool>/<version>/<platform>/ without
// any knowledge of --bin-dir, the flat layout the rest of this package
// writes to. It acquires the per-triple install lock, stages a copy of the already-installed artifact, and commits it with
// the same atomic rename-then-record sequence every store write shares.
func (i *Installer) commitToStore(name, version string, plat platform.Platform, installedPath, providerName string) error {
	home := platform.DefaultHome()
	paths := platform.NewPaths(home)
	st := store.New(home)

	if _, ok, err := st.Lookup(name, version, plat); err == nil && ok && !i.options.Force {
		return nil
	}

	lock, err := store.AcquireLock(paths, name, version, plat, 10*time.Minute)
	if err != nil {
		return fmt.Errorf("acquiring install lock: %w", err)
	}
	defer lock.Release()

	// Re-check now that we hold the lock: another process may have
	// committed this exact triple while we were waiting.
	if _, ok, err := st.Lookup(name, version, plat); err == nil && ok && !i.options.Force {
		return nil
	}

	stageID := fmt.Sprintf("%s-%s-%s", name, version, plat.String())
	stage := st.StageDir(stageID)
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clearing stale staging dir: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	info, err := os.Stat(installedPath)
	if err != nil {
		return fmt.Errorf("stat installed artifact %s: %w", installedPath, err)
	}

	var exeName string
	if info.IsDir() {
		if err := copyTree(installedPath, stage); err != nil {
			return fmt.Errorf("staging directory install of %s: %w", name, err)
		}
		exeName = name
	} else {
		exeName = filepath.Base(installedPath)
		dst := filepath.Join(stage, exeName)
		if err := copyFile(installedPath, dst); err != nil {
			return fmt.Errorf("staging binary install of %s: %w", name, err)
		}
		if err := os.Chmod(dst, 0o755); err != nil {
			return fmt.Errorf("making staged binary executable: %w", err)
		}
	}

	final := paths.PlatformStoreDir(name, version, plat)
	rec := store.Record{
		Tool:        name,
		Version:     version,
		Platform:    plat,
		Provider:    providerName,
		Executable:  filepath.Join(final, exeName),
		InstalledAt: time.Now(),
	}
	if err := st.Commit(stage, rec); err != nil {
		return fmt.Errorf("committing %s@%s to store: %w", name, version, err)
	}

	return createShim(paths, name, rec.Executable)
}

// createShim writes the small redirector vx places in <VX_HOME>/bin/ so a
// user who does put that directory on PATH gets a stable entry point into
// the content-addressed store, via the same
// pkg/shim writer a provider script's CreateShim Action uses.
func createShim(paths platform.Paths, name, target string) error {
	_, err := shim.Write(paths.ShimDir(), name, target, nil)
	return err
}

// copyTree recursively copies src into dst, preserving symlinks and file
// modes, for directory-mode installs whose store entry is more than a
// single executable.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, fi.Mode().Perm()|0o700)
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("reading symlink %s: %w", path, err)
			}
			return os.Symlink(linkTarget, target)
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		return os.Chmod(target, fi.Mode())
	})
}

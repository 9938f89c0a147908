package action

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vx-dev/vx/pkg/shim"
)

// FilesystemExecutor interprets Actions against a real directory on disk:
// the staged install directory during an install, or a committed store
// directory when the dispatcher runs a pre_run Action before exec'ing a
// tool. Every relative path an Action carries (Path, ShimTarget, Dir) is
// anchored at Root; SystemFind's Candidates are looked up on the host PATH.
type FilesystemExecutor struct {
	Root    string
	ShimDir string
}

// NewFilesystemExecutor builds an Executor rooted at an install directory,
// writing any shims it creates into shimDir.
func NewFilesystemExecutor(root, shimDir string) *FilesystemExecutor {
	return &FilesystemExecutor{Root: root, ShimDir: shimDir}
}

func (e *FilesystemExecutor) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.Root, p)
}

// SetPermissions chmods a file relative to Root.
func (e *FilesystemExecutor) SetPermissions(ctx context.Context, path string, mode uint32) error {
	target := e.resolve(path)
	if err := os.Chmod(target, os.FileMode(mode)); err != nil {
		return fmt.Errorf("set_permissions %s: %w", target, err)
	}
	return nil
}

// CreateShim writes a redirector script in ShimDir that execs target
// (resolved relative to Root) with args prepended, the mechanism ecosystem
// packages use to expose a binary nested several directories deep (e.g.
// node_modules/.bin/eslint) as a flat PATH entry, and the mechanism a
// provider's command_prefix (e.g. "bunx" -> "bun x") rides on. Shared with
// the installation engine's automatic per-tool shim via pkg/shim so both
// producers write the exact same on-disk format.
func (e *FilesystemExecutor) CreateShim(ctx context.Context, name, target string, args []string) error {
	targetPath := e.resolve(target)
	if _, err := shim.Write(e.ShimDir, name, targetPath, args); err != nil {
		return fmt.Errorf("creating shim %s -> %s: %w", name, targetPath, err)
	}
	return nil
}

// FlattenDir moves every file matching pattern up to dir itself, then
// removes whatever now-empty subdirectories the move left behind. Used for
// archives that wrap their payload in a single versioned top-level
// directory (e.g. "tool-v1.2.3-linux-amd64/tool").
func (e *FilesystemExecutor) FlattenDir(ctx context.Context, dir, pattern string) error {
	base := e.resolve(dir)
	matches, err := doublestar.Glob(os.DirFS(base), pattern)
	if err != nil {
		return fmt.Errorf("matching flatten pattern %q in %s: %w", pattern, base, err)
	}

	for _, m := range matches {
		src := filepath.Join(base, m)
		dst := filepath.Join(base, filepath.Base(m))
		if src == dst {
			continue
		}
		if _, err := os.Stat(dst); err == nil {
			_ = os.RemoveAll(dst)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("flattening %s: %w", m, err)
		}
	}
	return pruneEmptyDirs(base)
}

// RunCommand runs an arbitrary post-extract command (e.g. a vendor-supplied
// setup script), relative to dir.
func (e *FilesystemExecutor) RunCommand(ctx context.Context, dir string, command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("run_command: empty command")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = e.resolve(dir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run_command %v: %w", command, err)
	}
	return nil
}

// EnsureDependencies fails unless every named executable is reachable on
// PATH (e.g. a JVM for a Java-distributed tool), then, when a package
// manager is declared, runs `<pm> install` in Root if CheckFile exists
// but InstallDir doesn't yet, or if LockFile has been modified more
// recently than InstallDir. A second invocation with the install dir in
// place is a no-op.
func (e *FilesystemExecutor) EnsureDependencies(ctx context.Context, deps EnsureDeps) error {
	for _, dep := range deps.Executables {
		if _, err := exec.LookPath(dep); err != nil {
			return fmt.Errorf("required system dependency %q not found on PATH", dep)
		}
	}

	if deps.PackageManager == "" || deps.CheckFile == "" {
		return nil
	}
	if _, err := os.Stat(e.resolve(deps.CheckFile)); err != nil {
		return nil
	}

	installDir := e.resolve(deps.InstallDir)
	installInfo, err := os.Stat(installDir)
	if err == nil && deps.InstallDir != "" {
		if deps.LockFile == "" {
			return nil
		}
		lockInfo, lockErr := os.Stat(e.resolve(deps.LockFile))
		if lockErr != nil || !lockInfo.ModTime().After(installInfo.ModTime()) {
			return nil
		}
	}

	cmd := exec.CommandContext(ctx, deps.PackageManager, "install")
	cmd.Dir = e.Root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s install: %w", deps.PackageManager, err)
	}
	return nil
}

// SystemFind returns the first candidate found on PATH, used by providers
// that prefer an already-installed system tool over downloading their own.
func (e *FilesystemExecutor) SystemFind(ctx context.Context, candidates []string) (string, error) {
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("none of %v found on PATH", candidates)
}

// pruneEmptyDirs removes every empty directory under root, deepest first,
// leaving root itself even if it ends up empty.
func pruneEmptyDirs(root string) error {
	var dirs []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			_ = os.Remove(dirs[i])
		}
	}
	return nil
}

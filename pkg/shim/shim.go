// Package shim writes the small redirector executables vx places in
// <VX_HOME>/bin/ and <VX_HOME>/shims/: the only
// vx-owned entries a user is expected to put on PATH. A shim is a script
// rather than a symlink so relinking after an upgrade never leaves a stale
// absolute path embedded in another tool's PATH cache, and so a provider's
// command_prefix (e.g. "bunx" -> "bun x") can prepend arguments a symlink
// has no way to carry.
//
// Both the installation engine's automatic per-tool shim (pkg/installer)
// and a provider script's explicit CreateShim Action (pkg/action) write
// through this single implementation.
package shim

import (
	"fmt"
	goruntime "runtime"
	"os"
	"path/filepath"
	"strings"
)

// Write creates a shim named name in dir that re-invokes target with args
// prepended ahead of whatever arguments the user passes. On Windows it
// writes a .cmd wrapper; elsewhere a POSIX shell script using exec so the
// shim doesn't linger as a parent process. Returns the shim's path.
func Write(dir, name, target string, args []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating shim directory %s: %w", dir, err)
	}

	if goruntime.GOOS == "windows" {
		path := filepath.Join(dir, name+".cmd")
		content := fmt.Sprintf("@echo off\r\n\"%s\" %s%%*\r\n", target, winArgsPrefix(args))
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return "", fmt.Errorf("writing shim %s: %w", path, err)
		}
		return path, nil
	}

	path := filepath.Join(dir, name)
	content := fmt.Sprintf("#!/bin/sh\nexec \"%s\" %s\"$@\"\n", target, shArgsPrefix(args))
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return "", fmt.Errorf("writing shim %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes the shim named name from dir (for both platforms' naming
// conventions), the counterpart of Write used when a shim's target is
// uninstalled.
func Remove(dir, name string) error {
	for _, candidate := range []string{filepath.Join(dir, name), filepath.Join(dir, name+".cmd")} {
		if err := os.Remove(candidate); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing shim %s: %w", candidate, err)
		}
	}
	return nil
}

func shArgsPrefix(args []string) string {
	if len(args) == 0 {
		return ""
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ") + " "
}

func winArgsPrefix(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.Join(args, " ") + " "
}

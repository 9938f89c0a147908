// Package system extracts vendor installer artifacts (.msi, .pkg) into a
// normal directory tree so the rest of the install pipeline can treat them
// like any other archive. Extraction is always the quiet, unprivileged
// form: msiexec administrative extraction on Windows, pkgutil payload
// expansion on macOS. Nothing here ever installs system-wide or asks for
// elevation.
package system

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Kind classifies an installer artifact by extension.
func Kind(artifactPath string) string {
	switch strings.ToLower(filepath.Ext(artifactPath)) {
	case ".msi":
		return "msi"
	case ".pkg":
		return "pkg"
	default:
		return ""
	}
}

// Extract expands an installer artifact into destDir, dispatching on Kind.
func Extract(ctx context.Context, artifactPath, destDir string) error {
	switch Kind(artifactPath) {
	case "msi":
		return extractMsi(ctx, artifactPath, destDir)
	case "pkg":
		return extractPkg(ctx, artifactPath, destDir)
	default:
		return fmt.Errorf("not a system installer artifact: %s", artifactPath)
	}
}

// extractMsi performs an administrative extraction, which unpacks the MSI's
// payload into TARGETDIR without registering anything with the system.
func extractMsi(ctx context.Context, msiPath, destDir string) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf(".msi artifacts can only be extracted on windows")
	}

	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, "msiexec", "/a", msiPath, "/qn", "TARGETDIR="+absDest)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("msiexec /a %s: %w\n%s", filepath.Base(msiPath), err, out)
	}
	return nil
}

// extractPkg expands the package payload with pkgutil, the unprivileged
// counterpart to running the installer.
func extractPkg(ctx context.Context, pkgPath, destDir string) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf(".pkg artifacts can only be extracted on macOS")
	}

	// pkgutil refuses to expand into an existing directory.
	cmd := exec.CommandContext(ctx, "pkgutil", "--expand-full", pkgPath, destDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pkgutil --expand-full %s: %w\n%s", filepath.Base(pkgPath), err, out)
	}
	return nil
}

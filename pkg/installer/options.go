package installer

import (
	"os"
)

// InstallOptions configures one installation run.
type InstallOptions struct {
	BinDir         string
	AppDir         string
	TmpDir         string
	CacheDir       string
	Force          bool
	SkipChecksum   bool
	StrictChecksum bool // fail the install on checksum mismatch instead of warning
	Debug          bool
	OSOverride     string
	ArchOverride   string
}

// InstallOption is a functional option for configuring installation
type InstallOption func(*InstallOptions)

// WithBinDir sets the binary installation directory
func WithBinDir(dir string) InstallOption {
	return func(opts *InstallOptions) {
		opts.BinDir = dir
	}
}

// WithAppDir sets the application directory for directory-mode packages
func WithAppDir(dir string) InstallOption {
	return func(opts *InstallOptions) {
		opts.AppDir = dir
	}
}

// WithTmpDir sets the temporary directory for downloads and extraction
func WithTmpDir(dir string) InstallOption {
	return func(opts *InstallOptions) {
		opts.TmpDir = dir
	}
}

// WithCacheDir sets the cache directory for downloads
func WithCacheDir(dir string) InstallOption {
	return func(opts *InstallOptions) {
		opts.CacheDir = dir
	}
}

// WithForce enables or disables forced reinstallation
func WithForce(force bool) InstallOption {
	return func(opts *InstallOptions) {
		opts.Force = force
	}
}

// WithSkipChecksum enables or disables checksum verification
func WithSkipChecksum(skip bool) InstallOption {
	return func(opts *InstallOptions) {
		opts.SkipChecksum = skip
	}
}

// WithStrictChecksum controls whether a checksum validation failure fails
// the install or only logs a warning.
func WithStrictChecksum(strict bool) InstallOption {
	return func(opts *InstallOptions) {
		opts.StrictChecksum = strict
	}
}

// WithDebug enables debug mode, keeping downloaded and extracted files
func WithDebug(debug bool) InstallOption {
	return func(opts *InstallOptions) {
		opts.Debug = debug
	}
}

// WithOS sets OS and architecture overrides
func WithOS(os, arch string) InstallOption {
	return func(opts *InstallOptions) {
		opts.OSOverride = os
		opts.ArchOverride = arch
	}
}

// DefaultOptions returns the defaults an Installer starts from before
// functional options are applied.
func DefaultOptions() InstallOptions {
	home, err := os.UserHomeDir()
	defaultAppDir := "/opt"
	if err == nil && os.Geteuid() != 0 {
		defaultAppDir = home + "/.local/opt"
	}

	return InstallOptions{
		BinDir:         "/usr/local/bin",
		AppDir:         defaultAppDir,
		TmpDir:         os.TempDir(),
		StrictChecksum: true,
	}
}

// Package action defines the tagged-variant descriptors a provider's
// post_extract/pre_run scripts return, and the engine that interprets them.
// Actions never capture closures: every parameter they need travels with
// the value, so the same Action produced by a CEL script can be logged,
// replayed, or serialized into an InstallRecord.
package action

import (
	"context"
	"fmt"
)

// Kind tags the variant an Action carries.
type Kind string

const (
	KindSetPermissions    Kind = "set_permissions"
	KindCreateShim        Kind = "create_shim"
	KindFlattenDir        Kind = "flatten_dir"
	KindRunCommand        Kind = "run_command"
	KindEnsureDependencies Kind = "ensure_dependencies"
	KindSystemFind        Kind = "system_find"
)

// Action is a data-only description of a post-extract or pre-run side
// effect. Only the fields relevant to Kind are populated.
type Action struct {
	Kind Kind `json:"__type"`

	// SetPermissions
	Path string `json:"path,omitempty"`
	Mode uint32 `json:"mode,omitempty"`

	// CreateShim
	ShimName   string   `json:"shim_name,omitempty"`
	ShimTarget string   `json:"shim_target,omitempty"`
	ShimArgs   []string `json:"shim_args,omitempty"`

	// FlattenDir
	Pattern string `json:"pattern,omitempty"`

	// RunCommand
	Command []string `json:"command,omitempty"`
	Dir     string   `json:"dir,omitempty"`

	// EnsureDependencies
	Dependencies   []string `json:"dependencies,omitempty"`
	PackageManager string   `json:"package_manager,omitempty"`
	CheckFile      string   `json:"check_file,omitempty"`
	LockFilePath   string   `json:"lock_file,omitempty"`
	InstallDir     string   `json:"install_dir,omitempty"`

	// SystemFind
	Candidates []string `json:"candidates,omitempty"`
}

// EnsureDeps carries the ensure_dependencies parameters: Executables that
// must already be on PATH, and/or a package-manager install run when
// CheckFile exists but InstallDir doesn't yet (or LockFile is newer than
// it), the "package.json present, node_modules missing" pre-run case.
type EnsureDeps struct {
	Executables    []string
	PackageManager string
	CheckFile      string
	LockFile       string
	InstallDir     string
}

// Executor interprets Actions against a real install directory. It is an
// interface so the installation engine and the dispatcher can
// supply different backends (real filesystem vs. a dry-run recorder used
// by tests).
type Executor interface {
	SetPermissions(ctx context.Context, path string, mode uint32) error
	CreateShim(ctx context.Context, name, target string, args []string) error
	FlattenDir(ctx context.Context, dir, pattern string) error
	RunCommand(ctx context.Context, dir string, command []string) error
	EnsureDependencies(ctx context.Context, deps EnsureDeps) error
	SystemFind(ctx context.Context, candidates []string) (string, error)
}

// Run dispatches a with the given Executor, in the order the provider
// script returned them.
func Run(ctx context.Context, exec Executor, actions []Action) error {
	for i, a := range actions {
		if err := a.run(ctx, exec); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Kind, err)
		}
	}
	return nil
}

func (a Action) run(ctx context.Context, exec Executor) error {
	switch a.Kind {
	case KindSetPermissions:
		return exec.SetPermissions(ctx, a.Path, a.Mode)
	case KindCreateShim:
		return exec.CreateShim(ctx, a.ShimName, a.ShimTarget, a.ShimArgs)
	case KindFlattenDir:
		return exec.FlattenDir(ctx, a.Path, a.Pattern)
	case KindRunCommand:
		return exec.RunCommand(ctx, a.Dir, a.Command)
	case KindEnsureDependencies:
		return exec.EnsureDependencies(ctx, EnsureDeps{
			Executables:    a.Dependencies,
			PackageManager: a.PackageManager,
			CheckFile:      a.CheckFile,
			LockFile:       a.LockFilePath,
			InstallDir:     a.InstallDir,
		})
	case KindSystemFind:
		_, err := exec.SystemFind(ctx, a.Candidates)
		return err
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}

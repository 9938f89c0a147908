package cmd

import (
	"context"
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/vx-dev/vx/pkg/installer"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/shim"
	"github.com/vx-dev/vx/pkg/store"
	"github.com/vx-dev/vx/pkg/types"
)

// storeInstaller adapts the installation engine to project.Installer, so
// `vx sync` drives the same flat-install-then-commit-to-store pipeline
// `vx install` does, rather than a parallel code path.
type storeInstaller struct {
	inst *installer.Installer
}

func newStoreInstaller(manifest *types.DepsConfig) *storeInstaller {
	return &storeInstaller{
		inst: installer.NewWithConfig(
			manifest,
			installer.WithBinDir(manifest.Settings.BinDir),
			installer.WithTmpDir(tmpDir),
			installer.WithForce(force),
			installer.WithSkipChecksum(skipChecksum),
			installer.WithStrictChecksum(strictChecksum),
			installer.WithDebug(debug),
			installer.WithOS(osOverride, archOverride),
		),
	}
}

func (s *storeInstaller) Install(ctx context.Context, name string, pkg types.Package, version string) error {
	var installErr error
	task.StartTask(fmt.Sprintf("sync-%s@%s", name, version), func(_ flanksourceContext.Context, t *task.Task) (interface{}, error) {
		installErr = s.inst.Install(name, version, t)
		return nil, installErr
	})
	if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 && installErr == nil {
		installErr = fmt.Errorf("installing %s@%s failed with exit code %d", name, version, exitCode)
	}
	return installErr
}

func (s *storeInstaller) Remove(ctx context.Context, name, version string) error {
	home := platform.DefaultHome()
	paths := platform.NewPaths(home)
	st := store.New(home)

	if err := st.Remove(name, version, platform.Current()); err != nil {
		return err
	}
	if remaining, err := st.Versions(name); err == nil && len(remaining) == 0 {
		if err := shim.Remove(paths.ShimDir(), name); err != nil {
			return fmt.Errorf("removing shim for %s: %w", name, err)
		}
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/vx-dev/vx/pkg/lock"
	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/project"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"setup"},
	Short:   "Install every dependency pinned in vx-lock.yaml",
	Long: `Install every dependency vx-lock.yaml pins for this project, generating
a lock file first (per vx.yaml's registry and version constraints) if one
doesn't already exist. When the project manifest sets settings.clean, any
store entry that was locked last time but has since been dropped from
vx-lock.yaml is removed too.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath, err := project.Find(".")
		if err != nil {
			return err
		}
		p, err := project.Load(manifestPath)
		if err != nil {
			return err
		}

		previous, err := project.ReadLockFile(p.LockPath())
		if err != nil {
			return err
		}

		if previous == nil {
			if err := generateProjectLock(p); err != nil {
				return fmt.Errorf("generating %s: %w", project.LockFileName, err)
			}
		}

		if err := p.RunHook(cmd.Context(), "pre_setup", p.Manifest.Settings.BinDir); err != nil {
			return err
		}

		inst := newStoreInstaller(&p.Manifest)
		result, err := project.Sync(context.Background(), p, inst, previous)
		if err != nil {
			return err
		}

		if err := p.RunHook(cmd.Context(), "post_setup", p.Manifest.Settings.BinDir); err != nil {
			return err
		}

		for _, name := range result.Installed {
			fmt.Printf("installed %s\n", name)
		}
		for _, name := range result.Removed {
			fmt.Printf("removed %s\n", name)
		}
		if len(result.Installed) == 0 && len(result.Removed) == 0 {
			fmt.Println("nothing to do")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

// generateProjectLock resolves every dependency vx.yaml declares against
// its registry and writes vx-lock.yaml, the same resolution `vx lock`
// performs directly, run automatically the first time `vx sync` finds no
// lock file to install from.
func generateProjectLock(p *project.Project) error {
	generator := lock.NewGenerator(manager.GetGlobalRegistry())
	opts := types.LockOptions{Platforms: []string{p.Manifest.Settings.Platform.String()}}

	var lockFile *types.LockFile
	var genErr error
	task.StartTask("sync-lock-generation", func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
		lockFile, genErr = generator.Generate(ctx.Context, p.Manifest.Dependencies, p.Manifest.Registry, opts, t)
		return nil, genErr
	})
	if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 && genErr == nil {
		genErr = fmt.Errorf("lock generation failed with exit code %d", exitCode)
	}
	if genErr != nil {
		return genErr
	}

	return project.WriteLockFile(p.LockPath(), lockFile)
}

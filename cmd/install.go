package cmd

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/vx-dev/vx/pkg/installer"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:          "install [tool[@version]...]",
	Short:        "Install one or more tools into the store",
	SilenceUsage: true,
	Long: `Install one or more tools, resolving each version constraint against its
provider's catalog. With no arguments, installs everything vx.yaml declares.

Examples:
  vx install                       # install every tool vx.yaml declares
  vx install jq                    # newest stable jq
  vx install kubectl@v1.31.0       # a concrete version
  vx install jq yq@v4.44.3 kind    # several tools, installed in parallel`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	inst := installer.NewWithConfig(
		GetDepsConfig(),
		installer.WithBinDir(binDir),
		installer.WithTmpDir(tmpDir),
		installer.WithForce(force),
		installer.WithSkipChecksum(skipChecksum),
		installer.WithStrictChecksum(strictChecksum),
		installer.WithDebug(debug),
		installer.WithOS(osOverride, archOverride),
	)

	if len(args) == 0 {
		var installErr error
		task.StartTask("install-from-config", func(ctx flanksourceContext.Context, task *task.Task) (interface{}, error) {
			installErr = inst.InstallFromConfig(task)
			return nil, installErr
		})
		if installErr != nil {
			return installErr
		}
	} else {
		tools := installer.ParseTools(args)
		if err := inst.InstallMultiple(tools); err != nil {
			return err
		}
	}

	if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 {
		return fmt.Errorf("installation failed with exit code %d", exitCode)
	}
	return nil
}

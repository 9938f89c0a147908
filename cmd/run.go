package cmd

import (
	"fmt"
	"os"

	"github.com/flanksource/commons/logger"
	"github.com/vx-dev/vx/pkg/project"
	"github.com/spf13/cobra"
)

var runProjectCmd = &cobra.Command{
	Use:   "run <script> [args...]",
	Short: "Run a script declared in vx.yaml",
	Long: `Run a named script from the project's vx.yaml scripts block.

Scripts may declare "depends" on other scripts; vx runs the full
dependency chain in topological order before the requested script,
each with the project's vx-managed bin dir prepended to PATH.

Examples:
  vx run build
  vx run test`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scriptName := args[0]

		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		manifestPath, err := project.Find(wd)
		if err != nil {
			return err
		}
		proj, err := project.Load(manifestPath)
		if err != nil {
			return err
		}

		if _, ok := proj.Manifest.Scripts[scriptName]; !ok {
			return fmt.Errorf("no script named %q declared in vx.yaml", scriptName)
		}

		logger.Debugf("running script %s from %s", scriptName, proj.Root)
		return proj.RunScript(cmd.Context(), scriptName, binDir, args[1:])
	},
}

func init() {
	rootCmd.AddCommand(runProjectCmd)
}

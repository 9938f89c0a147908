package cmd

import (
	"fmt"

	"github.com/vx-dev/vx/pkg/globalconfig"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/store"
	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch <tool>@<version>",
	Short: "Set the default version vx dispatches for a tool",
	Long: `Pin a tool to a specific installed version, used whenever a dispatch
names no version of its own. Project manifest constraints are not consulted.

Example:
  vx switch node@20.11.0`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, version := splitToolSpec(args[0])
		if version == "" {
			return fmt.Errorf("usage: vx switch <tool>@<version>")
		}

		home := platform.DefaultHome()
		paths := platform.NewPaths(home)
		st := store.New(home)

		installed, err := st.Versions(tool)
		if err != nil {
			return err
		}
		if !contains(installed, version) {
			return fmt.Errorf("%s@%s is not installed for %s; run `vx install %s@%s` first",
				tool, version, platform.Current(), tool, version)
		}

		if err := globalconfig.SetDefault(paths.GlobalConfigFile(), tool, version); err != nil {
			return fmt.Errorf("setting default version: %w", err)
		}

		fmt.Printf("default %s version is now %s\n", tool, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(switchCmd)
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

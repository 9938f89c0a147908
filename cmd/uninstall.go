package cmd

import (
	"fmt"

	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/shim"
	"github.com/vx-dev/vx/pkg/store"
	"github.com/spf13/cobra"
)

var uninstallAll bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <tool>[@version]... [--all]",
	Short: "Remove one or more installed tool versions",
	Long: `Remove the specified version(s) of one or more tools from the store,
dropping any shim in <VX_HOME>/bin/ that pointed at the removed install in
the same step.

Examples:
  vx uninstall node@18.19.0
  vx uninstall node --all`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().BoolVar(&uninstallAll, "all", false, "Remove every installed version of the named tool(s)")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	home := platform.DefaultHome()
	paths := platform.NewPaths(home)
	st := store.New(home)
	plat := platform.Current()

	for _, arg := range args {
		tool, version := splitToolSpec(arg)

		var versions []string
		if uninstallAll || version == "" {
			vs, err := st.Versions(tool)
			if err != nil {
				return fmt.Errorf("listing installed versions of %s: %w", tool, err)
			}
			if !uninstallAll && len(vs) > 1 {
				return fmt.Errorf("%s has %d installed versions; specify @<version> or pass --all", tool, len(vs))
			}
			versions = vs
		} else {
			versions = []string{version}
		}

		if len(versions) == 0 {
			fmt.Printf("%s is not installed\n", tool)
			continue
		}

		for _, v := range versions {
			if err := st.Remove(tool, v, plat); err != nil {
				return fmt.Errorf("removing %s@%s: %w", tool, v, err)
			}
			fmt.Printf("removed %s@%s\n", tool, v)
		}

		if remaining, err := st.Versions(tool); err == nil && len(remaining) == 0 {
			if err := shim.Remove(paths.ShimDir(), tool); err != nil {
				fmt.Printf("warning: could not remove shim for %s: %v\n", tool, err)
			}
		}
	}

	return nil
}

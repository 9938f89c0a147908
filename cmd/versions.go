package cmd

import (
	"context"
	"fmt"

	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/spf13/cobra"
)

var versionsLimit int

var versionsCmd = &cobra.Command{
	Use:   "versions <tool>",
	Short: "Print versions available for a tool",
	Long: `List the versions vx's version catalog can resolve a tool to, newest
first, independent of what's currently installed.

Example:
  vx versions node`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		depsConfig := GetDepsConfig()
		if depsConfig == nil {
			return fmt.Errorf("configuration not loaded")
		}
		pkg, ok := depsConfig.Registry[name]
		if !ok {
			return fmt.Errorf("no provider registered for %q", name)
		}

		mgr, err := manager.GetGlobalRegistry().GetForPackage(pkg)
		if err != nil {
			return fmt.Errorf("resolving package manager for %s: %w", name, err)
		}

		versions, err := mgr.DiscoverVersions(context.Background(), pkg, platform.Current(), versionsLimit)
		if err != nil {
			return fmt.Errorf("fetching versions for %s: %w", name, err)
		}
		if len(versions) == 0 {
			fmt.Printf("no versions found for %s\n", name)
			return nil
		}

		for _, v := range versions {
			label := v.Version
			if v.Channel == "lts" {
				label += " (lts)"
			} else if v.Prerelease {
				label += " (prerelease)"
			}
			fmt.Println(label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.Flags().IntVar(&versionsLimit, "limit", 50, "Maximum number of versions to print (0 = all)")
}

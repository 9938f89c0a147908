package cmd

import (
	"fmt"
	"sort"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/vx-dev/vx/pkg/config"
	"github.com/vx-dev/vx/pkg/lock"
	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/spf13/cobra"
)

var (
	lockAll        bool
	lockPlatforms  []string
	lockOutputFile string
)

var lockCmd = &cobra.Command{
	Use:          "lock [tool...]",
	Short:        "Pin resolved versions and checksums into vx-lock.yaml",
	SilenceUsage: true,
	Long: `Resolve every declared dependency (or just the named ones) to a concrete
version and write vx-lock.yaml pinning each version's per-platform
download URL and checksum, so later syncs reproduce this exact
resolution.

Examples:
  vx lock                      # pin everything for this machine's platform
  vx lock jq kubectl           # re-pin two tools
  vx lock --all                # pin all common platforms
  vx lock --platforms linux-amd64,darwin-arm64`,
	RunE: runLock,
}

func init() {
	rootCmd.AddCommand(lockCmd)
	lockCmd.Flags().BoolVar(&lockAll, "all", false, "Lock all common platforms")
	lockCmd.Flags().StringSliceVar(&lockPlatforms, "platforms", nil, "Specific platforms to lock")
	lockCmd.Flags().StringVar(&lockOutputFile, "output", "", "Output lock file path (default: vx-lock.yaml)")
}

func runLock(cmd *cobra.Command, args []string) error {
	depsConfig := GetDepsConfig()
	if len(depsConfig.Dependencies) == 0 {
		return fmt.Errorf("no dependencies declared in vx.yaml")
	}

	opts := types.LockOptions{
		All:       lockAll,
		Platforms: lockPlatforms,
		Packages:  args,
	}

	generator := lock.NewGenerator(manager.GetGlobalRegistry())

	var lockFile *types.LockFile
	var genErr error
	task.StartTask("lock", func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
		lockFile, genErr = generator.Generate(ctx.Context, depsConfig.Dependencies, depsConfig.Registry, opts, t)
		return nil, genErr
	})
	if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 && genErr == nil {
		genErr = fmt.Errorf("lock generation failed with exit code %d", exitCode)
	}
	if genErr != nil {
		return genErr
	}

	// Partial re-locks keep the untouched entries from the previous file.
	if len(args) > 0 {
		if previous, err := config.LoadLockFile(lockOutputFile); err == nil {
			for name, entry := range previous.Dependencies {
				if _, replaced := lockFile.Dependencies[name]; !replaced {
					lockFile.Dependencies[name] = entry
				}
			}
		}
	}

	outputPath := lockOutputFile
	if outputPath == "" {
		outputPath = config.LockFile
	}
	if err := config.SaveLockFile(lockFile, outputPath); err != nil {
		return fmt.Errorf("failed to save lock file: %w", err)
	}

	printLockSummary(lockFile, outputPath)
	return nil
}

func printLockSummary(lockFile *types.LockFile, path string) {
	names := make([]string, 0, len(lockFile.Dependencies))
	for name := range lockFile.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Locked %d dependencies to %s\n", len(names), path)
	for _, name := range names {
		entry := lockFile.Dependencies[name]
		fmt.Printf("  %s@%s (%d platform(s))\n", name, entry.Version, len(entry.Platforms))
	}
}

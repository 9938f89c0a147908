package cmd

import (
	"fmt"
	"sort"

	"github.com/vx-dev/vx/pkg/project"
	"github.com/vx-dev/vx/pkg/version"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report drift between vx.yaml and vx-lock.yaml",
	Long: `Re-resolve vx.yaml's declared constraints against the committed
vx-lock.yaml and report tools that are missing from the lock file or whose
locked version no longer satisfies the manifest's constraint.

Exits non-zero when the lock file is out of sync.`,
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

		result, err := project.Check(p, func(constraint, lockedVersion string) (bool, error) {
			c, err := version.ParseConstraint(constraint)
			if err != nil {
				return false, err
			}
			return c.Check(lockedVersion), nil
		})
		if err != nil {
			return err
		}

		if result.OK() {
			fmt.Println("vx-lock.yaml is in sync with vx.yaml")
			return nil
		}

		sort.Strings(result.Missing)
		sort.Strings(result.Stale)
		for _, name := range result.Missing {
			fmt.Printf("missing: %s is declared in vx.yaml but not locked\n", name)
		}
		for _, name := range result.Stale {
			fmt.Printf("stale:   %s's locked version no longer satisfies its vx.yaml constraint\n", name)
		}
		return fmt.Errorf("vx-lock.yaml is out of sync with vx.yaml; run `vx lock` to update it")
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

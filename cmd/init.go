package cmd

import (
	"fmt"
	"os"

	"github.com/vx-dev/vx/pkg/config"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/spf13/cobra"
)

var (
	initFromExisting bool
	initExample      bool
	initForce        bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vx.yaml configuration file",
	Long: `Initialize a new vx.yaml configuration file.

This command writes a minimal vx.yaml that depends on kubectl (latest)
through a direct-download registry entry. An existing vx.yaml is only
replaced when --force is given. --example does not change the generated
file; --from-existing only adds a suggestion to run 'vx lock --all'.

Examples:
  # Create a minimal configuration
  vx init

  # Overwrite existing configuration
  vx init --force
`,
	RunE: initRun,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initFromExisting, "from-existing", false, "Also suggest running 'vx lock --all' afterwards")
	initCmd.Flags().BoolVar(&initExample, "example", false, "Has no effect on the generated file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing vx.yaml")
}

func initRun(cmd *cobra.Command, args []string) error {
	// Check if vx.yaml already exists
	if _, err := os.Stat(config.DepsFile); err == nil && !initForce {
		return fmt.Errorf("vx.yaml already exists (use --force to overwrite)")
	}

	var depsConfig *types.DepsConfig

	// Create minimal configuration
	fmt.Println("Creating minimal configuration...")
	depsConfig = config.CreateDefaultConfig()

	// Add a few common tools as examples
	depsConfig.Dependencies = map[string]string{
		"kubectl": "latest",
	}

	depsConfig.Registry = map[string]types.Package{
		"kubectl": {
			Name:           "kubectl",
			Manager:        "direct",
			URLTemplate:    "https://storage.googleapis.com/kubernetes-release/release/{{.version}}/bin/{{.os}}/{{.arch}}/kubectl",
			VersionCommand: "version --client",
			VersionRegex:   `Client Version:\s*v?(\d+\.\d+\.\d+)`,
		},
	}

	fmt.Printf("✓ Created minimal configuration\n")

	// Save the configuration
	if err := config.SaveDepsConfig(depsConfig, ""); err != nil {
		return fmt.Errorf("failed to save vx.yaml: %w", err)
	}

	fmt.Printf("✓ Created vx.yaml\n")

	// Print next steps
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit vx.yaml to add your dependencies")
	fmt.Println("  2. Run 'vx lock' to generate vx-lock.yaml")
	fmt.Println("  3. Run 'vx install' to install dependencies")

	// If we migrated, suggest running lock
	if initFromExisting {
		fmt.Println("\nRecommended: Run 'vx lock --all' to generate multi-platform lock file")
	}

	return nil
}

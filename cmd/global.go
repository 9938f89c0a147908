package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/vx-dev/vx/pkg/globalpkg"
	"github.com/vx-dev/vx/pkg/installer"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/spf13/cobra"
)

var globalCmd = &cobra.Command{
	Use:   "global",
	Short: "Manage ecosystem-isolated global packages",
	Long: `Install and manage packages outside any single project's store, each
isolated under its own ecosystem/name/version directory with a shim
exposed in <VX_HOME>/shims/.`,
}

func init() {
	rootCmd.AddCommand(globalCmd)
	globalCmd.AddCommand(globalInstallCmd, globalListCmd, globalUninstallCmd, globalInfoCmd)
}

// parseGlobalRef splits "ecosystem:name[@version]" into its parts.
func parseGlobalRef(spec string) (ecosystem, name, version string, err error) {
	colon := strings.Index(spec, ":")
	if colon == -1 {
		return "", "", "", fmt.Errorf("expected <ecosystem>:<pkg>[@version], got %q", spec)
	}
	ecosystem = spec[:colon]
	rest := spec[colon+1:]
	name, version = splitToolSpec(rest)
	return ecosystem, name, version, nil
}

var globalInstallCmd = &cobra.Command{
	Use:   "install <ecosystem>:<pkg>[@version]",
	Short: "Install a package into its own ecosystem-isolated directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ecosystem, name, version, err := parseGlobalRef(args[0])
		if err != nil {
			return err
		}

		depsConfig := GetDepsConfig()
		if depsConfig == nil {
			return fmt.Errorf("configuration not loaded")
		}
		pkg, ok := depsConfig.Registry[name]
		if !ok {
			return fmt.Errorf("no provider registered for %q", name)
		}

		reg := globalpkg.New(platform.DefaultHome())
		ref := globalpkg.Ref{Ecosystem: ecosystem, Name: name, Version: version}
		if ref.Version == "" {
			ref.Version = "latest"
		}
		packageDir := reg.PackageDir(ref)

		inst := installer.NewWithConfig(
			depsConfig,
			installer.WithBinDir(packageDir),
			installer.WithTmpDir(tmpDir),
			installer.WithForce(force),
			installer.WithSkipChecksum(skipChecksum),
			installer.WithStrictChecksum(strictChecksum),
			installer.WithDebug(debug),
			installer.WithOS(osOverride, archOverride),
		)

		var installErr error
		task.StartTask(fmt.Sprintf("global-install-%s", ref), func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
			installErr = inst.Install(name, ref.Version, t)
			return nil, installErr
		})
		if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 {
			if installErr == nil {
				installErr = fmt.Errorf("global install failed with exit code %d", exitCode)
			}
			return installErr
		}
		if installErr != nil {
			return installErr
		}

		binaryName := pkg.BinaryName
		if binaryName == "" {
			binaryName = name
		}
		target := filepath.Join(packageDir, binaryName)
		if err := reg.ClaimShim(ref, binaryName, target); err != nil {
			return fmt.Errorf("creating shim for %s: %w", ref, err)
		}

		fmt.Printf("installed %s (shim: %s)\n", ref, binaryName)
		return nil
	},
}

var globalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed global packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := globalpkg.New(platform.DefaultHome())
		byEcosystem, err := reg.List()
		if err != nil {
			return err
		}
		if len(byEcosystem) == 0 {
			fmt.Println("no global packages installed")
			return nil
		}
		for ecosystem, refs := range byEcosystem {
			fmt.Printf("%s:\n", ecosystem)
			for _, ref := range refs {
				fmt.Printf("  %s@%s\n", ref.Name, ref.Version)
			}
		}
		return nil
	},
}

var globalUninstallCmd = &cobra.Command{
	Use:   "uninstall <ecosystem>:<pkg>@<version>",
	Short: "Remove an installed global package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ecosystem, name, version, err := parseGlobalRef(args[0])
		if err != nil {
			return err
		}
		if version == "" {
			return fmt.Errorf("uninstall requires an explicit @version (see `vx global info %s:%s`)", ecosystem, name)
		}

		depsConfig := GetDepsConfig()
		binaryName := name
		if depsConfig != nil {
			if pkg, ok := depsConfig.Registry[name]; ok && pkg.BinaryName != "" {
				binaryName = pkg.BinaryName
			}
		}

		reg := globalpkg.New(platform.DefaultHome())
		ref := globalpkg.Ref{Ecosystem: ecosystem, Name: name, Version: version}

		if err := reg.ReleaseShim(ref, binaryName); err != nil {
			return fmt.Errorf("releasing shim for %s: %w", ref, err)
		}
		if err := reg.Remove(ref); err != nil {
			return fmt.Errorf("removing %s: %w", ref, err)
		}

		fmt.Printf("removed %s\n", ref)
		return nil
	},
}

var globalInfoCmd = &cobra.Command{
	Use:   "info <ecosystem>:<pkg>",
	Short: "Show installed versions of a global package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ecosystem, name, _, err := parseGlobalRef(args[0])
		if err != nil {
			return err
		}
		reg := globalpkg.New(platform.DefaultHome())
		versions, err := reg.Installed(ecosystem, name)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Printf("%s:%s is not installed\n", ecosystem, name)
			return nil
		}
		fmt.Printf("%s:%s installed versions:\n", ecosystem, name)
		for _, v := range versions {
			fmt.Printf("  %s\n", v)
		}
		return nil
	},
}

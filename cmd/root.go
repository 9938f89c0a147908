package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
	"github.com/vx-dev/vx/pkg/config"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/store"
	"github.com/vx-dev/vx/pkg/types"
	"github.com/spf13/cobra"

	// Register all package managers via init functions
	_ "github.com/vx-dev/vx/pkg/manager/direct"
	_ "github.com/vx-dev/vx/pkg/manager/github"
	_ "github.com/vx-dev/vx/pkg/manager/golang"
	_ "github.com/vx-dev/vx/pkg/manager/npm"
	_ "github.com/vx-dev/vx/pkg/manager/static"
	_ "github.com/vx-dev/vx/pkg/manager/url"
)

var (
	binDir         string
	appDir         string
	tmpDir         string
	cacheDir       string
	force          bool
	skipChecksum   bool
	strictChecksum bool
	verbose        bool
	debug          bool
	osOverride     string
	archOverride   string
	configFile     string
	depsConfig     *types.DepsConfig
	versionInfo    VersionInfo
	showVersion    bool
	timeout        time.Duration
)

type VersionInfo struct {
	Version string
	Commit  string
	Date    string
	Dirty   string
}

func SetVersion(version, commit, date, dirty string) {
	versionInfo = VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
		Dirty:   dirty,
	}
}

func GetVersionInfo() VersionInfo {
	return versionInfo
}

var (
	useSystemPath bool
	withTools     []string
)

var rootCmd = &cobra.Command{
	Use:   "vx",
	Short: "A universal development-tool version manager",
	Long: `vx installs, pins, and transparently runs the development tools a
project declares in vx.yaml, the same way a language-specific version
manager pins one runtime, but across every tool a project depends on.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// Handle --version flag when no subcommand is specified
		if showVersion {
			printVersion()
			return
		}
		// No registered subcommand matched args[0]: treat it as
		// `vx <tool> [args...]`, the headline use case.
		if len(args) > 0 {
			dispatchTool(args)
			return
		}
		// Show help if no version flag and no tool given
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Handle --version flag for subcommands
		if showVersion {
			printVersion()
			os.Exit(0)
		}

		// Apply clicky flags after command line parsing
		clicky.Flags.UseFlags()

		// Set global platform overrides from CLI flags
		platform.SetGlobalOverrides(osOverride, archOverride)

		// Initialize global depsConfig
		var err error
		depsConfig, err = config.LoadMergedConfig(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger.Debugf("Using BIN_DIR: %s (%s/%s)", binDir, osOverride, archOverride)

		sweepStoreOnStartup()
	},
}

// sweepStoreOnStartup is the crash-safety pass run on every start: orphaned
// tmp/<uuid> directories from an install that never reached its atomic
// commit are swept, and any store entry left inconsistent by a crash
// between the commit rename and the record write is reconstructed or
// quarantined. Failures here are logged, never fatal; every vx
// command should still run against whatever state the store is in.
func sweepStoreOnStartup() {
	home := platform.DefaultHome()
	paths := platform.NewPaths(home)

	if removed, err := store.SweepOrphanedTmp(paths, 0); err != nil {
		logger.Debugf("tmp sweep failed: %v", err)
	} else if len(removed) > 0 {
		logger.Debugf("swept %d orphaned tmp dir(s)", len(removed))
	}

	result, err := store.Repair(store.New(home))
	if err != nil {
		logger.Debugf("store repair pass failed: %v", err)
		return
	}
	for _, t := range result.Reconstructed {
		logger.Debugf("reconstructed install record for %s", t)
	}
	for _, t := range result.Quarantined {
		logger.Warnf("quarantined inconsistent store entry for %s", t)
	}
}

func printVersion() {
	dirtyStr := ""
	if versionInfo.Dirty == "true" {
		dirtyStr = " (dirty)"
	}
	fmt.Printf("vx version %s\n", versionInfo.Version)
	fmt.Printf("  commit: %s%s\n", versionInfo.Commit, dirtyStr)
	fmt.Printf("  built: %s\n", versionInfo.Date)
	fmt.Printf("  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func Execute() error {
	return rootCmd.Execute()
}

// GetDepsConfig returns the global depsConfig
func GetDepsConfig() *types.DepsConfig {
	return depsConfig
}

func init() {

	clicky.BindAllFlags(rootCmd.PersistentFlags(), "tasks", "!format")
	home := "/usr/local"
	if os.Geteuid() != 0 {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, ".local")
		}
	}

	defaultAppDir := filepath.Join(home, "opt")
	defaultBinDir := filepath.Join(home, "bin")
	if d := os.Getenv("APP_DIR"); d != "" {
		defaultAppDir = d
	}
	if d := os.Getenv("BIN_DIR"); d != "" {
		defaultBinDir = d
	}

	rootCmd.PersistentFlags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringVar(&binDir, "bin-dir", defaultBinDir, "Directory to install binaries")
	rootCmd.PersistentFlags().StringVar(&appDir, "app-dir", defaultAppDir, "Directory to install directory-mode packages")
	rootCmd.PersistentFlags().StringVar(&tmpDir, "tmp-dir", os.TempDir(), "Directory for temporary files (will not be cleaned up on exit)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory for download cache (default: empty; no command reads this value)")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "Force reinstall even if binary exists")
	rootCmd.PersistentFlags().BoolVar(&skipChecksum, "skip-checksum", false, "Skip checksum verification")
	rootCmd.PersistentFlags().BoolVar(&strictChecksum, "strict-checksum", true, "Fail installation when checksum verification fails (default: true)")
	rootCmd.PersistentFlags().StringVar(&osOverride, "os", runtime.GOOS, "Target OS (linux, darwin, windows)")
	rootCmd.PersistentFlags().StringVar(&archOverride, "arch", runtime.GOARCH, "Target architecture (amd64, arm64, etc.)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to vx.yaml config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Timeout for downloads and installations")
	rootCmd.PersistentFlags().BoolVar(&useSystemPath, "use-system-path", false, "Run the system-installed tool instead of the vx-managed version")
	rootCmd.PersistentFlags().StringSliceVar(&withTools, "with", nil, "Additional tools to inject into the child process's PATH")
}

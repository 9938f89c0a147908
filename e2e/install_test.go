package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/vx-dev/vx/e2e/helpers"
	"github.com/vx-dev/vx/pkg/config"
	"github.com/vx-dev/vx/pkg/installer"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/verify"
)

// installForTest runs a single install through pkg/installer the same way
// the vx CLI does (task.StartTask + clicky.WaitForGlobalCompletion), so e2e
// coverage exercises the real installer entry point rather than a bespoke
// test-only path.
func installForTest(name, version, testOS, arch, appDir, binDir string) error {
	depsConfig := config.GetGlobalRegistry()
	inst := installer.NewWithConfig(
		depsConfig,
		installer.WithOS(testOS, arch),
		installer.WithAppDir(appDir),
		installer.WithBinDir(binDir),
	)

	var installErr error
	task.StartTask(fmt.Sprintf("e2e-install-%s", name), func(_ flanksourceContext.Context, t *task.Task) (interface{}, error) {
		installErr = inst.Install(name, version, t)
		return nil, installErr
	})
	if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 && installErr == nil {
		installErr = fmt.Errorf("install of %s failed with exit code %d", name, exitCode)
	}
	return installErr
}

// verifyBinariesInDir finds all executables in binDir and verifies they match expected OS/arch
func verifyBinariesInDir(binDir, expectedOS, expectedArch string) error {
	entries, err := os.ReadDir(binDir)
	if err != nil {
		return fmt.Errorf("failed to read bin dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// Skip marker files
		name := entry.Name()
		if strings.HasSuffix(name, ".installed") {
			continue
		}
		binaryPath := filepath.Join(binDir, name)

		// Check if it's a symlink and resolve it
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(binaryPath)
			if err != nil {
				continue
			}
			binaryPath = resolved
		}

		// Detect binary info
		binaryInfo, err := verify.DetectBinaryPlatform(binaryPath)
		if err != nil {
			return fmt.Errorf("binary %s: %w", name, err)
		}

		// Skip unknown format (shell scripts, Java wrappers, etc.) and dotnet assemblies
		if binaryInfo.Type == "unknown" || binaryInfo.Type == "dotnet" {
			GinkgoWriter.Printf("Skipping %s (%s - not a native binary)\n", name, binaryInfo.Type)
			continue
		}

		// Verify platform matches
		if binaryInfo.OS != expectedOS {
			return fmt.Errorf("binary %s: OS mismatch: expected %s, got %s", name, expectedOS, binaryInfo.OS)
		}
		if binaryInfo.Arch != expectedArch {
			return fmt.Errorf("binary %s: arch mismatch: expected %s, got %s", name, expectedArch, binaryInfo.Arch)
		}
	}
	return nil
}

var _ = Describe("Installation tests", func() {
	arch := os.Getenv("TEST_ARCH")
	if arch == "" {
		arch = runtime.GOARCH
	}
	testOS := os.Getenv("TEST_OS")
	if testOS == "" {
		testOS = runtime.GOOS
	}
	Describe(testOS, func() {
		var testCtx *helpers.TestContext

		BeforeEach(func() {
			var err error
			testCtx, err = helpers.CreateInstallTestEnvironment()
			Expect(err).ToNot(HaveOccurred(), "Test environment creation should succeed")
		})

		AfterEach(func() {
			if testCtx != nil {
				testCtx.Cleanup()
			}
		})

		// Set global platform overrides from CLI flags
		platform.SetGlobalOverrides(testOS, arch)

		for _, packageData := range helpers.GetPackagesToTest(testOS, arch) {

			It(fmt.Sprintf("should install %s on %s", packageData.PackageName, packageData.Platform), func() {

				tempDir, err := os.MkdirTemp("", "deps-e2e-"+packageData.PackageName+"-*")
				Expect(err).ToNot(HaveOccurred(), "failed to create temp dir")

				binDir := filepath.Join(tempDir, "bin")
				err = installForTest(packageData.PackageName, "stable", testOS, arch,
					filepath.Join(tempDir, "app"), binDir)

				Expect(err).ToNot(HaveOccurred(), "Installation should not error")

				// Verify installed binaries match expected platform
				err = verifyBinariesInDir(binDir, testOS, arch)
				Expect(err).ToNot(HaveOccurred(), "Binary platform verification should pass")
			})
		}

		It("should install flux", func() {
			tempDir, err := os.MkdirTemp("", "")
			Expect(err).ToNot(HaveOccurred(), "failed to create temp dir")

			binDir := filepath.Join(tempDir, "bin")
			err = installForTest("fluxcd/flux2", "stable", testOS, arch,
				filepath.Join(tempDir, "app"), binDir)
			Expect(err).ToNot(HaveOccurred(), "Installation should not error")

			// Verify installed binaries match expected platform
			err = verifyBinariesInDir(binDir, testOS, arch)
			Expect(err).ToNot(HaveOccurred(), "Binary platform verification should pass")
		})
		It("should install stern", func() {
			tempDir, err := os.MkdirTemp("", "")
			Expect(err).ToNot(HaveOccurred(), "failed to create temp dir")

			binDir := filepath.Join(tempDir, "bin")
			err = installForTest("stern/stern", "stable", testOS, arch,
				filepath.Join(tempDir, "app"), binDir)
			Expect(err).ToNot(HaveOccurred(), "Installation should not error")

			// Verify installed binaries match expected platform
			err = verifyBinariesInDir(binDir, testOS, arch)
			Expect(err).ToNot(HaveOccurred(), "Binary platform verification should pass")
		})
	})

})

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/vx-dev/vx/pkg/action"
	"github.com/vx-dev/vx/pkg/dispatch"
	"github.com/vx-dev/vx/pkg/installer"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/provider"
)

// dispatchTool implements the primary `vx <tool> [args...]` entry point:
// resolve the tool
// to an installed executable in the store, auto-installing it first when
// it's missing and auto-install isn't disabled, compose its environment
// (PATH plus any --with companions), and exec it with its exit code passed
// through verbatim.
func dispatchTool(args []string) {
	tool, version := splitToolSpec(args[0])
	rest := args[1:]

	d, err := newDispatcher()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(7)
	}

	req := dispatch.Request{
		Tool:          tool,
		VersionQuery:  version,
		Args:          rest,
		UseSystemPath: useSystemPath,
		With:          withTools,
	}

	if _, resolveErr := d.Resolve(req); resolveErr != nil && !useSystemPath {
		if !autoInstallEnabled() {
			fmt.Fprintf(os.Stderr, "vx: %v\n", resolveErr)
			os.Exit(3)
		}
		if err := autoInstall(tool, version); err != nil {
			fmt.Fprintf(os.Stderr, "vx: %s is not installed and auto-install failed: %v\n", tool, err)
			os.Exit(3)
		}
	}

	if !useSystemPath {
		if err := runPreRunActions(d, req); err != nil {
			fmt.Fprintf(os.Stderr, "vx: %s provider pre_run failed: %v\n", tool, err)
			os.Exit(7)
		}
	}

	code, err := d.Run(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vx: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// runPreRunActions evaluates the resolved provider's pre_run hook (if its
// provider.cel declares one) and interprets the returned Actions against
// the current working directory before the tool is spawned. This is how a
// runtime provider gets its "install project dependencies first" behavior:
// the hook returns an ensure_dependencies descriptor and the executor runs
// the package manager only when the project's dependency dir is missing or
// stale. Script failures surface as configuration errors for this tool,
// never a crash.
func runPreRunActions(d *dispatch.Dispatcher, req dispatch.Request) error {
	entry, ok := d.Providers.Get(req.Tool)
	if !ok || entry.Manifest.Script == "" {
		return nil
	}

	exePath, err := d.Resolve(req)
	if err != nil {
		return err
	}

	eval, err := provider.NewEvaluator()
	if err != nil {
		return err
	}
	actions, err := eval.EvalHook(entry.Manifest.Script, "pre_run", provider.ScriptContext{
		"platform":   platform.Current().String(),
		"args":       req.Args,
		"executable": exePath,
	})
	if err != nil || len(actions) == 0 {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	paths := platform.NewPaths(platform.DefaultHome())
	return action.Run(context.Background(), action.NewFilesystemExecutor(wd, paths.ShimDir()), actions)
}

// autoInstallEnabled honors VX_AUTO_INSTALL, defaulting to on.
func autoInstallEnabled() bool {
	if v := os.Getenv("VX_AUTO_INSTALL"); v != "" {
		return v != "0" && v != "false"
	}
	return true
}

// autoInstall drives the same installation engine `vx install` uses,
// scoped to a single tool, so dispatching against an uninstalled tool
// materializes it transparently instead of failing with DispatchError.
func autoInstall(tool, version string) error {
	depsConfig := GetDepsConfig()
	if depsConfig == nil || depsConfig.Registry == nil {
		return fmt.Errorf("no provider registered for %q", tool)
	}
	if _, ok := depsConfig.Registry[tool]; !ok {
		return fmt.Errorf("no provider registered for %q", tool)
	}

	inst := installer.NewWithConfig(
		depsConfig,
		installer.WithBinDir(binDir),
		installer.WithTmpDir(tmpDir),
		installer.WithSkipChecksum(skipChecksum),
		installer.WithStrictChecksum(strictChecksum),
		installer.WithDebug(debug),
		installer.WithOS(osOverride, archOverride),
	)

	var installErr error
	task.StartTask(fmt.Sprintf("auto-install-%s", tool), func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
		installErr = inst.Install(tool, version, t)
		return nil, installErr
	})
	if exitCode := clicky.WaitForGlobalCompletion(); exitCode != 0 && installErr == nil {
		installErr = fmt.Errorf("auto-install task reported failure")
	}
	return installErr
}

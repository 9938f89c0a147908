// Package dispatch resolves a `vx <tool>@<version> [args...]` invocation to
// an installed executable, composes the child process's environment, and
// execs it transparently with signal forwarding and exit-code passthrough.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/flanksource/commons/logger"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/provider"
	"github.com/vx-dev/vx/pkg/store"
	vxversion "github.com/vx-dev/vx/pkg/version"
)

// Request describes what to run and how to select it.
type Request struct {
	Tool           string
	VersionQuery   string // constraint string, "" meaning "the global default, else the newest installed version"
	Args           []string
	UseSystemPath  bool // --use-system-path escape hatch
	With           []string // --with companion tools to inject into the environment
}

// Dispatcher resolves and runs tools out of a Store against a provider Registry.
type Dispatcher struct {
	Store     *store.Store
	Providers *provider.Registry
	Platform  platform.Platform

	// GlobalDefault returns the version `vx switch` pinned for a tool, if
	// any, consulted when the request names no version and before falling
	// back to the newest installed version. Resolve does not read project
	// manifest constraints.
	GlobalDefault func(tool string) (string, bool)
}

// New builds a Dispatcher over the given store and provider registry.
func New(s *store.Store, providers *provider.Registry) *Dispatcher {
	return &Dispatcher{Store: s, Providers: providers, Platform: platform.Current()}
}

// Resolve finds the executable for req.Tool@req.VersionQuery, auto-installing
// is the caller's responsibility (the dispatcher only resolves what's
// already in the store) unless req.UseSystemPath is set, in which case it
// looks the bare tool name up on PATH instead.
func (d *Dispatcher) Resolve(req Request) (string, error) {
	if req.UseSystemPath {
		path, err := exec.LookPath(req.Tool)
		if err != nil {
			return "", fmt.Errorf("--use-system-path: %s not found on PATH: %w", req.Tool, err)
		}
		warnSystemPathOnce(req.Tool)
		return path, nil
	}

	name, version := splitAlias(d.Providers, req)

	if version == "" && d.GlobalDefault != nil {
		if pinned, ok := d.GlobalDefault(name); ok {
			version = pinned
		}
	}

	if version == "" {
		versions, err := d.Store.Versions(name)
		if err != nil {
			return "", err
		}
		if len(versions) == 0 {
			// Ecosystem alias routing: a name with no provider install of
			// its own may be a globally installed package (vite, pre-commit)
			// whose shim in shims/ already encodes the runner invocation.
			if shimPath, ok := d.globalShim(req.Tool); ok {
				return shimPath, nil
			}
			return "", fmt.Errorf("%s is not installed; run `vx install %s`", name, name)
		}
		if sorted, err := vxversion.SortVersionsDescending(versions); err == nil && len(sorted) > 0 {
			version = sorted[0]
		} else {
			sort.Strings(versions)
			version = versions[len(versions)-1]
		}
	}

	rec, ok, err := d.Store.Lookup(name, version, d.Platform)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s@%s is not installed for %s; run `vx install %s@%s`", name, version, d.Platform, name, version)
	}
	return rec.Executable, nil
}

// splitAlias routes an ecosystem-qualified invocation (e.g. `vite` meaning
// `npm:vite`) to its canonical provider name, leaving the version query
// untouched.
func splitAlias(providers *provider.Registry, req Request) (string, string) {
	name := req.Tool
	if providers != nil {
		if entry, ok := providers.Get(req.Tool); ok {
			name = entry.Name
		}
	}
	return name, req.VersionQuery
}

// globalShim looks the bare tool name up among the ecosystem-package
// shims; on Windows the shim carries a .cmd suffix.
func (d *Dispatcher) globalShim(tool string) (string, bool) {
	dir := d.Store.Paths.GlobalShimDir()
	for _, candidate := range []string{filepath.Join(dir, tool), filepath.Join(dir, tool+".cmd")} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

var warnedSystemPath = map[string]bool{}

// warnSystemPathOnce notes that the system binary is being run in place of
// a vx-managed version, once per tool per invocation. Silent substitution
// inside a project that pins the tool is the failure mode this guards
// against; failing outright would make the escape hatch useless.
func warnSystemPathOnce(tool string) {
	if warnedSystemPath[tool] {
		return
	}
	warnedSystemPath[tool] = true
	logger.Warnf("--use-system-path: running system %s instead of the vx-managed version", tool)
}

// Environment composes the PATH and any companion-tool environment
// variables a child process should see. Companion tools (req.With) are
// resolved the same way as the primary tool; when two companions declare
// the same environment variable, the one whose provider name sorts first
// wins, so composition order never depends on map iteration.
func (d *Dispatcher) Environment(ctx context.Context, req Request, primary string) ([]string, error) {
	env := os.Environ()
	pathDirs := []string{filepath.Dir(primary)}

	companions := append([]string{}, req.With...)
	sort.Strings(companions)

	extra := map[string]string{}
	for _, companion := range companions {
		cReq := Request{Tool: companion}
		exe, err := d.Resolve(cReq)
		if err != nil {
			return nil, fmt.Errorf("resolving companion tool %s: %w", companion, err)
		}
		pathDirs = append(pathDirs, filepath.Dir(exe))

		if entry, ok := d.Providers.Get(companion); ok {
			for k, v := range entry.Manifest.Extra {
				if s, ok := v.(string); ok {
					if _, exists := extra[k]; !exists {
						extra[k] = s
					}
				}
			}
		}
	}

	joined := pathDirs[0]
	for _, dir := range pathDirs[1:] {
		joined += string(os.PathListSeparator) + dir
	}
	env = append(env, "PATH="+joined+string(os.PathListSeparator)+os.Getenv("PATH"))
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env, nil
}

// Run resolves, composes the environment, and execs the tool with signal
// forwarding and exit-code passthrough. Callers that need pre_run Actions
// executed (provider.Evaluator.EvalActions against an action.Executor)
// should run them before calling Run.
func (d *Dispatcher) Run(ctx context.Context, req Request) (int, error) {
	exePath, err := d.Resolve(req)
	if err != nil {
		return -1, err
	}

	env, err := d.Environment(ctx, req, exePath)
	if err != nil {
		return -1, err
	}

	cmd := exec.CommandContext(ctx, exePath, req.Args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("starting %s: %w", exePath, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-sigCh:
			if cmd.Process != nil {
				_ = cmd.Process.Signal(sig)
			}
		case err := <-done:
			if err == nil {
				return 0, nil
			}
			if exitErr, ok := err.(*exec.ExitError); ok {
				return exitErr.ExitCode(), nil
			}
			return -1, fmt.Errorf("running %s: %w", exePath, err)
		}
	}
}

package project

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/vx-dev/vx/pkg/envs"
)

// composeEnv builds the KEY=value pairs appended to a script or hook's
// inherited environment: the manifest's static `env` block (rendered, so
// values can reference {{.os}}/{{.arch}}/{{.root}}), then any per-script
// overrides. Declared required variables missing from both the caller's
// environment and the static block are warned about, not fatal, the
// script itself decides whether it can live without them.
func (p *Project) composeEnv(extra map[string]string) ([]string, error) {
	var pairs []string

	if p.Manifest.Env != nil {
		data := map[string]interface{}{
			"os":   p.Manifest.Settings.Platform.OS,
			"arch": p.Manifest.Settings.Platform.Arch,
			"root": p.Root,
		}
		static, err := envs.RenderEnvs(p.Manifest.Env.Static, data)
		if err != nil {
			return nil, fmt.Errorf("rendering project env: %w", err)
		}
		for k, v := range static {
			pairs = append(pairs, k+"="+v)
		}

		for name, description := range p.Manifest.Env.Required {
			if _, inherited := os.LookupEnv(name); inherited {
				continue
			}
			if _, declared := static[name]; declared {
				continue
			}
			logger.Warnf("required environment variable %s is not set (%s)", name, description)
		}
	}

	for k, v := range extra {
		pairs = append(pairs, k+"="+v)
	}
	return pairs, nil
}

// RunScript executes name and its transitive `depends` in order, using
// binDir (the project's vx-managed bin dir) prepended to PATH so scripts
// invoke the project's own pinned tool versions without qualification.
// extraArgs from the CLI are appended to the requested script's command
// only, never to its dependencies.
func (p *Project) RunScript(ctx context.Context, name string, binDir string, extraArgs []string) error {
	order, err := ResolveScriptOrder(p.Manifest.Scripts, name)
	if err != nil {
		return err
	}

	for _, scriptName := range order {
		script := p.Manifest.Scripts[scriptName]
		command := script.Run
		if scriptName == name && len(extraArgs) > 0 {
			command += " " + shellJoin(extraArgs)
		}
		logger.Infof("running script %s: %s", scriptName, command)

		env, err := p.composeEnv(script.Env)
		if err != nil {
			return err
		}

		cwd := p.Root
		if script.Cwd != "" {
			cwd = script.Cwd
			if !filepath.IsAbs(cwd) {
				cwd = filepath.Join(p.Root, cwd)
			}
		}

		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = cwd
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Env = append(os.Environ(), env...)
		cmd.Env = append(cmd.Env, "PATH="+binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("script %s failed: %w", scriptName, err)
		}
	}
	return nil
}

// RunHook executes the command registered for a lifecycle point (e.g.
// "post_setup"), a no-op if the project declares none.
func (p *Project) RunHook(ctx context.Context, point string, binDir string) error {
	hook, ok := p.Manifest.Hooks[point]
	if !ok {
		return nil
	}

	env, err := p.composeEnv(nil)
	if err != nil {
		return err
	}

	logger.Infof("running %s hook: %s", point, hook.Run)
	cmd := exec.CommandContext(ctx, "sh", "-c", hook.Run)
	cmd.Dir = p.Root
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), env...)
	cmd.Env = append(cmd.Env, "PATH="+binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s hook failed: %w", point, err)
	}
	return nil
}

// shellJoin quotes each argument for a POSIX shell so user-supplied args
// survive the `sh -c` round trip verbatim.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

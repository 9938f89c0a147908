// Package pipeline interprets a manifest's post_process entries. Each
// entry is an optional platform gate ("!windows*: ...", "linux*: ...")
// followed by a CEL expression whose builtins (rm, move, chmod, mkdir,
// flatten, exec) return tagged step descriptors; the engine then performs
// the decoded steps, in order, against the extracted working tree. The
// expressions themselves never touch the filesystem, so a manifest's
// post-processing stays declarative, loggable, and testable without disk.
package pipeline

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/clicky/task"
	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/vx-dev/vx/pkg/manager"
	"github.com/vx-dev/vx/pkg/platform"
)

// Step is one decoded post-process operation.
type Step struct {
	Kind     string   // "delete", "move", "chmod", "mkdir", "flatten", "exec"
	Patterns []string // delete, chmod, flatten
	Src      string   // move
	Dst      string   // move
	Mode     uint32   // chmod
	Path     string   // mkdir
	Command  []string // exec
}

func (s Step) String() string {
	switch s.Kind {
	case "move":
		return fmt.Sprintf("move %s -> %s", s.Src, s.Dst)
	case "chmod":
		return fmt.Sprintf("chmod %o %s", s.Mode, strings.Join(s.Patterns, " "))
	case "exec":
		return "exec " + strings.Join(s.Command, " ")
	case "mkdir":
		return "mkdir " + s.Path
	default:
		return s.Kind + " " + strings.Join(s.Patterns, " ")
	}
}

// Env is everything a pipeline run needs from the installer: where the
// extracted tree lives and the template variables expressions may read.
type Env struct {
	WorkDir string
	Name    string
	Version string
	Task    *task.Task
}

func (e Env) debugf(format string, args ...any) {
	if e.Task != nil {
		e.Task.Debugf(format, args...)
	}
}

// stepDict builds the descriptor map a pipeline builtin returns.
func stepDict(kind string, fields map[string]any) ref.Val {
	m := map[string]any{"__type": kind}
	for k, v := range fields {
		m[k] = v
	}
	return celtypes.DefaultTypeAdapter.NativeToValue(m)
}

// newEnv builds the CEL environment pipeline expressions compile against.
// glob() is an identity marker kept for manifest readability; patterns are
// matched by the engine at execution time, not at evaluation time.
func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("version", cel.StringType),
		cel.Variable("os", cel.StringType),
		cel.Variable("arch", cel.StringType),
		cel.Function("glob",
			cel.Overload("glob_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(v ref.Val) ref.Val { return v }))),
		cel.Function("rm",
			cel.Overload("rm_string", []*cel.Type{cel.StringType}, cel.DynType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return stepDict("delete", map[string]any{"patterns": []string{fmt.Sprint(v.Value())}})
				}))),
		cel.Function("move",
			cel.Overload("move_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.DynType,
				cel.BinaryBinding(func(src, dst ref.Val) ref.Val {
					return stepDict("move", map[string]any{"src": fmt.Sprint(src.Value()), "dst": fmt.Sprint(dst.Value())})
				}))),
		cel.Function("chmod",
			cel.Overload("chmod_int_string", []*cel.Type{cel.IntType, cel.StringType}, cel.DynType,
				cel.BinaryBinding(func(mode, pattern ref.Val) ref.Val {
					return stepDict("chmod", map[string]any{"mode": mode.Value(), "patterns": []string{fmt.Sprint(pattern.Value())}})
				}))),
		cel.Function("mkdir",
			cel.Overload("mkdir_string", []*cel.Type{cel.StringType}, cel.DynType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return stepDict("mkdir", map[string]any{"path": fmt.Sprint(v.Value())})
				}))),
		cel.Function("flatten",
			cel.Overload("flatten_string", []*cel.Type{cel.StringType}, cel.DynType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return stepDict("flatten", map[string]any{"patterns": []string{fmt.Sprint(v.Value())}})
				}))),
		cel.Function("exec",
			cel.Overload("exec_list", []*cel.Type{cel.ListType(cel.StringType)}, cel.DynType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return stepDict("exec", map[string]any{"command": v.Value()})
				}))),
	)
}

// ForPlatform drops entries gated to other platforms and strips the gate
// prefix from the rest, preserving declaration order.
func ForPlatform(entries []string, plat platform.Platform) []string {
	return manager.FilterEntriesByPlatform(entries, plat)
}

// Parse evaluates each expression into its Steps. Expressions are pure;
// an expression returning a list contributes every element in order.
func Parse(exprs []string, env Env) ([]Step, error) {
	if len(exprs) == 0 {
		return nil, nil
	}

	celEnv, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("creating pipeline environment: %w", err)
	}

	plat := platform.Current()
	vars := map[string]any{
		"name":    env.Name,
		"version": env.Version,
		"os":      plat.OS,
		"arch":    plat.Arch,
	}

	var steps []Step
	for _, expr := range exprs {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}

		ast, issues := celEnv.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compiling post_process %q: %w", expr, issues.Err())
		}
		prg, err := celEnv.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("building post_process %q: %w", expr, err)
		}
		out, _, err := prg.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("evaluating post_process %q: %w", expr, err)
		}

		decoded, err := decodeSteps(out.Value())
		if err != nil {
			return nil, fmt.Errorf("post_process %q: %w", expr, err)
		}
		steps = append(steps, decoded...)
	}
	return steps, nil
}

func decodeSteps(raw any) ([]Step, error) {
	switch v := raw.(type) {
	case ref.Val:
		return decodeSteps(v.Value())
	case []ref.Val:
		var steps []Step
		for _, item := range v {
			s, err := decodeSteps(item.Value())
			if err != nil {
				return nil, err
			}
			steps = append(steps, s...)
		}
		return steps, nil
	case []any:
		var steps []Step
		for _, item := range v {
			s, err := decodeSteps(item)
			if err != nil {
				return nil, err
			}
			steps = append(steps, s...)
		}
		return steps, nil
	case map[ref.Val]ref.Val:
		native := map[string]any{}
		for k, val := range v {
			native[fmt.Sprint(k.Value())] = val.Value()
		}
		return decodeSteps(native)
	case map[string]any:
		for k, val := range v {
			if wrapped, ok := val.(ref.Val); ok {
				v[k] = wrapped.Value()
			}
		}
		step := Step{Kind: fmt.Sprint(v["__type"])}
		step.Src, _ = v["src"].(string)
		step.Dst, _ = v["dst"].(string)
		step.Path, _ = v["path"].(string)
		if mode, ok := v["mode"].(int64); ok {
			step.Mode = uint32(mode)
		}
		step.Patterns = toStrings(v["patterns"])
		step.Command = toStrings(v["command"])
		if step.Kind == "" || step.Kind == "<nil>" {
			return nil, fmt.Errorf("expression must return step descriptors, got %v", v)
		}
		return []Step{step}, nil
	default:
		return nil, fmt.Errorf("expression must return step descriptors, got %T", raw)
	}
}

func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []ref.Val:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item.Value()))
		}
		return out
	default:
		return nil
	}
}

// Run performs the decoded steps against env.WorkDir in declared order.
func Run(steps []Step, env Env) error {
	for _, step := range steps {
		env.debugf("post_process: %s", step)
		if err := runStep(step, env); err != nil {
			return fmt.Errorf("post_process step %q: %w", step, err)
		}
	}
	return nil
}

func runStep(step Step, env Env) error {
	switch step.Kind {
	case "delete":
		for _, match := range matchAll(env.WorkDir, step.Patterns) {
			if err := os.RemoveAll(match); err != nil {
				return err
			}
		}
		return nil

	case "move":
		dst := filepath.Join(env.WorkDir, step.Dst)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.Rename(filepath.Join(env.WorkDir, step.Src), dst)

	case "chmod":
		for _, match := range matchAll(env.WorkDir, step.Patterns) {
			if err := os.Chmod(match, os.FileMode(step.Mode)); err != nil {
				return err
			}
		}
		return nil

	case "mkdir":
		return os.MkdirAll(filepath.Join(env.WorkDir, step.Path), 0o755)

	case "flatten":
		// Hoist the contents of the single matching subdirectory one level
		// up, the usual cure for archives wrapping their payload in a
		// versioned top-level directory.
		matches := matchAll(env.WorkDir, step.Patterns)
		if len(matches) != 1 {
			return fmt.Errorf("flatten needs exactly one match, got %d for %v", len(matches), step.Patterns)
		}
		entries, err := os.ReadDir(matches[0])
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := os.Rename(filepath.Join(matches[0], entry.Name()), filepath.Join(env.WorkDir, entry.Name())); err != nil {
				return err
			}
		}
		return os.Remove(matches[0])

	case "exec":
		if len(step.Command) == 0 {
			return fmt.Errorf("empty command")
		}
		cmd := exec.Command(step.Command[0], step.Command[1:]...)
		cmd.Dir = env.WorkDir
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w\n%s", strings.Join(step.Command, " "), err, out)
		}
		return nil

	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

// matchAll resolves glob patterns relative to root into absolute paths.
func matchAll(root string, patterns []string) []string {
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(os.DirFS(root), pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			out = append(out, filepath.Join(root, m))
		}
	}
	return out
}

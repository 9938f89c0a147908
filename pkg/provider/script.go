package provider

import (
	"fmt"

	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/vx-dev/vx/pkg/action"
)

// ScriptContext is the set of variables a provider.cel script's functions
// see when evaluated: ctx.platform, ctx.version, ctx.name, plus whatever the
// caller adds for a specific hook (e.g. install_dir for post_extract).
type ScriptContext map[string]any

// Evaluator compiles and runs a provider.cel expression against a
// ScriptContext, producing the tagged descriptor dicts the install engine
// and dispatcher consume. Scripts are pure CEL expressions: no loops, no
// I/O, no user-defined functions beyond what CEL itself provides, which is
// what keeps them sandboxable and unit-testable.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator builds the CEL environment providers evaluate against.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("ctx", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating provider CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Eval evaluates a script expression and returns its result decoded into a
// plain Go value (map[string]any, []any, string, etc.).
func (e *Evaluator) Eval(expr string, sctx ScriptContext) (any, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling provider script: %w", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building provider script program: %w", err)
	}

	out, _, err := prg.Eval(map[string]any{"ctx": map[string]any(sctx)})
	if err != nil {
		return nil, fmt.Errorf("evaluating provider script: %w", err)
	}
	return nativeValue(out), nil
}

// nativeValue unwraps a CEL result into plain Go maps, slices, and scalars;
// ConvertToNative against the empty interface would hand back CEL's own
// wrapper types, which the descriptor decoding below can't range over.
func nativeValue(v ref.Val) any {
	switch val := v.(type) {
	case traits.Mapper:
		m := map[string]any{}
		it := val.Iterator()
		for it.HasNext() == celtypes.True {
			k := it.Next()
			m[fmt.Sprint(k.Value())] = nativeValue(val.Get(k))
		}
		return m
	case traits.Lister:
		out := []any{}
		it := val.Iterator()
		for it.HasNext() == celtypes.True {
			out = append(out, nativeValue(it.Next()))
		}
		return out
	default:
		return v.Value()
	}
}

// EvalLayout evaluates an install_layout expression into a LayoutDescriptor.
func (e *Evaluator) EvalLayout(expr string, sctx ScriptContext) (action.LayoutDescriptor, error) {
	raw, err := e.Eval(expr, sctx)
	if err != nil {
		return action.LayoutDescriptor{}, err
	}

	m, ok := asStringMap(raw)
	if !ok {
		return action.LayoutDescriptor{}, fmt.Errorf("install_layout must return a tagged dict, got %T", raw)
	}

	var desc action.LayoutDescriptor
	desc.Kind = action.LayoutKind(stringField(m, "__type"))
	desc.ExecutablePath = stringField(m, "executable_path")
	desc.ArchiveFormat = stringField(m, "archive_format")
	desc.Symlinks = stringSliceField(m, "symlinks")
	desc.InstallerKind = stringField(m, "installer_kind")
	desc.Method = stringField(m, "method")
	desc.Args = stringSliceField(m, "args")
	return desc, nil
}

// EvalActions evaluates a post_extract/pre_run expression into an ordered
// Action list. A script returning a single dict (rather than a list) is
// treated as a one-element list, matching scripts that only ever emit one
// side effect.
func (e *Evaluator) EvalActions(expr string, sctx ScriptContext) ([]action.Action, error) {
	if expr == "" {
		return nil, nil
	}

	raw, err := e.Eval(expr, sctx)
	if err != nil {
		return nil, err
	}
	return decodeActions(raw)
}

// EvalHook evaluates a provider's whole script (one CEL expression
// returning a dict of hook name to descriptor value) and decodes the
// named hook as an Action list. A script that doesn't declare the hook
// yields nil, not an error, so providers only describe the hooks they
// need.
func (e *Evaluator) EvalHook(script, hook string, sctx ScriptContext) ([]action.Action, error) {
	if script == "" {
		return nil, nil
	}

	raw, err := e.Eval(script, sctx)
	if err != nil {
		return nil, err
	}

	hooks, ok := asStringMap(raw)
	if !ok {
		return nil, fmt.Errorf("provider script must return a dict of hooks, got %T", raw)
	}
	value, ok := hooks[hook]
	if !ok || value == nil {
		return nil, nil
	}
	return decodeActions(value)
}

func decodeActions(raw any) ([]action.Action, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("expected a list or dict of actions, got %T", raw)
	}

	actions := make([]action.Action, 0, len(items))
	for _, item := range items {
		m, ok := asStringMap(item)
		if !ok {
			return nil, fmt.Errorf("action entry must be a tagged dict, got %T", item)
		}

		a := action.Action{Kind: action.Kind(stringField(m, "__type"))}
		a.Path = stringField(m, "path")
		a.Mode = uint32(intField(m, "mode"))
		a.ShimName = stringField(m, "shim_name")
		a.ShimTarget = stringField(m, "shim_target")
		a.Pattern = stringField(m, "pattern")
		a.Command = stringSliceField(m, "command")
		a.Dir = stringField(m, "dir")
		a.Dependencies = stringSliceField(m, "dependencies")
		a.PackageManager = stringField(m, "package_manager")
		a.CheckFile = stringField(m, "check_file")
		a.LockFilePath = stringField(m, "lock_file")
		a.InstallDir = stringField(m, "install_dir")
		a.Candidates = stringSliceField(m, "candidates")
		actions = append(actions, a)
	}
	return actions, nil
}

func asStringMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func stringSliceField(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

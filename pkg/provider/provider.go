// Package provider loads provider manifests (provider.yaml + optional
// provider.cel script) and holds the registry of known providers as a
// dispatch table keyed by name.
package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vx-dev/vx/pkg/types"
	"gopkg.in/yaml.v3"
)

// Manifest is a provider's static declaration (provider.yaml). It reuses
// types.Package's field shape, URLTemplate, AssetPatterns, ChecksumExpr,
// PostProcess, Symlinks, WrapperScript, since a provider manifest and a
// package definition describe the same thing from opposite ends: a package
// selects a provider and supplies overrides, a provider supplies the
// defaults.
type Manifest struct {
	types.Package `yaml:",inline"`

	// Aliases lets a provider answer to more than one ecosystem-qualified
	// name, e.g. a node provider registering both "node" and "nodejs".
	Aliases []string `yaml:"aliases,omitempty"`
	// Ecosystem groups providers for alias routing, e.g.
	// "npm" tools route through the npm ecosystem's global-install path.
	Ecosystem string `yaml:"ecosystem,omitempty"`
	// ScriptPath points at an optional provider.cel sitting alongside this
	// manifest; when present its contents are loaded into Script.
	ScriptPath string `yaml:"-"`
	// Script is the provider.cel source: one CEL expression evaluating to
	// a dict of hook name (install_layout, post_extract, pre_run,
	// environment) to descriptor value, given `ctx`. Hooks declared here
	// take precedence over the manifest's static fields.
	Script string `yaml:"-"`
}

// Source identifies where a Manifest was loaded from, used to implement the
// loading-priority chain (built-in < $VX_HOME/providers < .vx/providers).
type Source int

const (
	SourceBuiltin Source = iota
	SourceGlobal
	SourceProject
)

// Entry is a loaded provider together with its precedence source.
type Entry struct {
	Name     string
	Manifest Manifest
	Source   Source
}

// Registry holds every known provider, keyed by name, with alias routing.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Entry
	byAlias  map[string]string // alias -> canonical name
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Entry),
		byAlias: make(map[string]string),
	}
}

// Register adds or overrides a provider. Providers loaded from a
// higher-precedence Source (project over global over builtin) always win.
func (r *Registry) Register(name string, m Manifest, source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok && existing.Source > source {
		return
	}

	r.byName[name] = &Entry{Name: name, Manifest: m, Source: source}
	for _, alias := range m.Aliases {
		r.byAlias[alias] = name
	}
}

// Get resolves a name or alias to its provider Entry.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.byName[name]; ok {
		return e, true
	}
	if canonical, ok := r.byAlias[name]; ok {
		e, ok := r.byName[canonical]
		return e, ok
	}
	return nil, false
}

// List returns every registered provider name, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir loads every <name>/provider.yaml found directly under dir into
// the registry at the given precedence Source. Subdirectories without a
// provider.yaml are skipped; the first manifest that fails to read or parse
// aborts the load with an error.
func (r *Registry) LoadDir(dir string, source Source) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading provider directory %s: %w", dir, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		manifestPath := filepath.Join(dir, name, "provider.yaml")
		data, err := os.ReadFile(manifestPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", manifestPath, err)
		}

		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("parsing %s: %w", manifestPath, err)
		}
		if m.Name == "" {
			m.Name = name
		}

		scriptPath := filepath.Join(dir, name, "provider.cel")
		if script, err := os.ReadFile(scriptPath); err == nil {
			m.ScriptPath = scriptPath
			m.Script = string(script)
		}

		r.Register(name, m, source)
	}
	return nil
}

// LoadChain loads the standard three-tier priority chain: built-in
// providers, then $VX_HOME/providers, then .vx/providers, each overriding
// providers of the same name loaded before it.
func LoadChain(builtinDir, globalDir, projectDir string) (*Registry, error) {
	reg := NewRegistry()
	if err := reg.LoadDir(builtinDir, SourceBuiltin); err != nil {
		return nil, err
	}
	if err := reg.LoadDir(globalDir, SourceGlobal); err != nil {
		return nil, err
	}
	if err := reg.LoadDir(projectDir, SourceProject); err != nil {
		return nil, err
	}
	return reg, nil
}

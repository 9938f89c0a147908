// Package plugin lets a tool bypass the shared download pipeline with a
// custom install routine (e.g. toolchains that bootstrap themselves).
// Plugins are keyed by the package they handle and consulted before the
// manager-based pipeline runs.
package plugin

import (
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/vx-dev/vx/pkg/types"
)

// InstallOptions is the slice of installer configuration a plugin sees.
type InstallOptions struct {
	BinDir       string
	Force        bool
	SkipChecksum bool
	Debug        bool
	OSOverride   string
	ArchOverride string
}

// InstallPlugin installs one package family outside the normal pipeline.
type InstallPlugin interface {
	// Name returns the package name this plugin handles
	Name() string

	// CanHandle checks if this plugin should handle the given package
	CanHandle(name string, pkg types.Package) bool

	// Install performs the custom installation
	Install(ctx flanksourceContext.Context, name, version string, pkg types.Package, opts InstallOptions, task *task.Task) error
}

// Registry maps package names to their plugins.
type Registry struct {
	plugins map[string]InstallPlugin
}

// NewRegistry creates an empty plugin registry
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]InstallPlugin)}
}

// Register adds a plugin to the registry
func (r *Registry) Register(plugin InstallPlugin) {
	r.plugins[plugin.Name()] = plugin
}

// FindHandler returns the plugin claiming this package, if any: an exact
// name match first, then any plugin whose CanHandle accepts it.
func (r *Registry) FindHandler(name string, pkg types.Package) InstallPlugin {
	if plugin, exists := r.plugins[name]; exists && plugin.CanHandle(name, pkg) {
		return plugin
	}
	for _, plugin := range r.plugins {
		if plugin.CanHandle(name, pkg) {
			return plugin
		}
	}
	return nil
}

// Global plugin registry, populated from pkg/plugin/builtin.
var globalRegistry = NewRegistry()

// Register adds a plugin to the global registry
func Register(plugin InstallPlugin) {
	globalRegistry.Register(plugin)
}

// GetGlobalRegistry returns the global plugin registry
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

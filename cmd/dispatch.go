package cmd

import (
	"fmt"
	"os"

	"github.com/vx-dev/vx/pkg/dispatch"
	"github.com/vx-dev/vx/pkg/globalconfig"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/project"
	"github.com/vx-dev/vx/pkg/provider"
	"github.com/vx-dev/vx/pkg/store"
)

// newDispatcher builds the store, provider registry, and dispatcher a
// command needs to resolve or run tools. It looks for a project (vx.yaml)
// rooted at the current directory so project-scoped providers
// (.vx/providers) take precedence over the global and built-in ones.
func newDispatcher() (*dispatch.Dispatcher, error) {
	home := platform.DefaultHome()
	paths := platform.NewPaths(home)

	projectProviders := ""
	if wd, err := os.Getwd(); err == nil {
		if manifestPath, err := project.Find(wd); err == nil {
			projectProviders = manifestPath[:len(manifestPath)-len(project.ManifestFile)] + ".vx/providers"
		}
	}

	registry, err := provider.LoadChain(platform.BuiltinProvidersDir(), paths.ProvidersDir(), projectProviders)
	if err != nil {
		return nil, fmt.Errorf("loading providers: %w", err)
	}

	st := store.New(home)
	d := dispatch.New(st, registry)
	d.GlobalDefault = func(tool string) (string, bool) {
		version, ok, err := globalconfig.GetDefault(paths.GlobalConfigFile(), tool)
		if err != nil || !ok {
			return "", false
		}
		return version, true
	}
	return d, nil
}

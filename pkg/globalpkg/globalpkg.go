// Package globalpkg implements ecosystem-isolated global package installs:
// `vx global install <ecosystem>:<pkg>[@version]` lands
// under packages/<ecosystem>/<name>/<version>/ rather than the tool store,
// and its executables get shims in shims/ whose name collisions are
// resolved by last-installed-wins, with the previous owner restored on
// uninstall.
package globalpkg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/shim"
)

// Ref identifies one global package install.
type Ref struct {
	Ecosystem string
	Name      string
	Version   string
}

func (r Ref) String() string { return fmt.Sprintf("%s:%s@%s", r.Ecosystem, r.Name, r.Version) }

// owner is one entry in a shim name's ownership stack, newest last.
type owner struct {
	Ref    Ref    `json:"ref"`
	Target string `json:"target"`
}

// Registry tracks which global package owns each shim name, so a later
// install of a different package exposing the same binary name can be
// undone cleanly by uninstalling it.
type Registry struct {
	Paths platform.Paths
}

// New builds a Registry over home (or the platform default if empty).
func New(home string) *Registry {
	return &Registry{Paths: platform.NewPaths(home)}
}

// PackageDir is the install root for a global package.
func (r *Registry) PackageDir(ref Ref) string {
	return r.Paths.GlobalPackageDir(ref.Ecosystem, ref.Name, ref.Version)
}

func (r *Registry) ownersFile(shimName string) string {
	return filepath.Join(r.Paths.Home, "packages", ".owners", shimName+".json")
}

func (r *Registry) readOwners(shimName string) ([]owner, error) {
	data, err := os.ReadFile(r.ownersFile(shimName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading shim ownership record for %s: %w", shimName, err)
	}
	var owners []owner
	if err := json.Unmarshal(data, &owners); err != nil {
		return nil, fmt.Errorf("parsing shim ownership record for %s: %w", shimName, err)
	}
	return owners, nil
}

func (r *Registry) writeOwners(shimName string, owners []owner) error {
	path := r.ownersFile(shimName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating shim ownership directory: %w", err)
	}
	data, err := json.MarshalIndent(owners, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding shim ownership record for %s: %w", shimName, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ClaimShim records ref as the new (winning) owner of shimName pointing at
// target, and writes the shim. The previous owner, if any, is kept in the
// ownership stack so Release can restore it later.
func (r *Registry) ClaimShim(ref Ref, shimName, target string) error {
	owners, err := r.readOwners(shimName)
	if err != nil {
		return err
	}
	owners = append(owners, owner{Ref: ref, Target: target})
	if err := r.writeOwners(shimName, owners); err != nil {
		return err
	}
	_, err = shim.Write(r.Paths.GlobalShimDir(), shimName, target, nil)
	return err
}

// ReleaseShim removes ref's ownership of shimName. If ref was the current
// (last) owner, the runner-up (the previous entry in the stack) gets its
// shim restored, or the shim is removed when no owner remains. Releasing
// an owner that is not current leaves the shim as it is.
func (r *Registry) ReleaseShim(ref Ref, shimName string) error {
	owners, err := r.readOwners(shimName)
	if err != nil {
		return err
	}

	idx := -1
	for i := len(owners) - 1; i >= 0; i-- {
		if owners[i].Ref == ref {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	wasCurrent := idx == len(owners)-1
	owners = append(owners[:idx], owners[idx+1:]...)

	if err := r.writeOwners(shimName, owners); err != nil {
		return err
	}

	if !wasCurrent {
		return nil
	}
	if len(owners) == 0 {
		return shim.Remove(r.Paths.GlobalShimDir(), shimName)
	}
	runnerUp := owners[len(owners)-1]
	_, err = shim.Write(r.Paths.GlobalShimDir(), shimName, runnerUp.Target, nil)
	return err
}

// Installed lists every installed version of an ecosystem:name package,
// sorted.
func (r *Registry) Installed(ecosystem, name string) ([]string, error) {
	root := filepath.Join(r.Paths.Home, "packages", ecosystem, name)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing installed versions of %s:%s: %w", ecosystem, name, err)
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// List enumerates every installed global package, grouped by ecosystem.
func (r *Registry) List() (map[string][]Ref, error) {
	root := filepath.Join(r.Paths.Home, "packages")
	ecosystems, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing global packages: %w", err)
	}

	result := map[string][]Ref{}
	for _, eco := range ecosystems {
		if !eco.IsDir() || eco.Name() == ".owners" {
			continue
		}
		names, err := os.ReadDir(filepath.Join(root, eco.Name()))
		if err != nil {
			continue
		}
		for _, n := range names {
			if !n.IsDir() {
				continue
			}
			versions, err := r.Installed(eco.Name(), n.Name())
			if err != nil {
				continue
			}
			for _, v := range versions {
				result[eco.Name()] = append(result[eco.Name()], Ref{Ecosystem: eco.Name(), Name: n.Name(), Version: v})
			}
		}
	}
	return result, nil
}

// Remove deletes a global package's install directory. Callers are
// responsible for releasing any shims it owned via ReleaseShim first.
func (r *Registry) Remove(ref Ref) error {
	return os.RemoveAll(r.PackageDir(ref))
}

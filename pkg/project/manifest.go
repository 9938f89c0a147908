// Package project implements the vx.yaml project controller: manifest
// loading, `sync`/`run`/`lock`/`check`, hooks, and dependency-ordered
// scripts.
package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	ManifestFile = "vx.yaml"
	LockFileName = "vx-lock.yaml"
)

// Project is a loaded vx.yaml manifest together with the directory it was
// found in (the project root, used to resolve relative script working
// directories and the lock file path).
type Project struct {
	Root     string
	Manifest types.DepsConfig
}

// Find searches startDir and its ancestors for a vx.yaml, the same upward
// search a project-aware CLI like npm/cargo performs, stopping at the
// first directory that has one.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, ManifestFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory", ManifestFile, startDir)
		}
		dir = parent
	}
}

// Load reads and parses vx.yaml at path, applying the usual defaulting
// (bin dir default, platform detection, nil-map initialization), and
// rejects unknown top-level keys so a typo in a project's manifest fails
// loudly instead of being silently ignored.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var manifest types.DepsConfig
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if manifest.Settings.BinDir == "" {
		manifest.Settings.BinDir = "./.vx/bin"
	}
	if manifest.Settings.Platform.OS == "" || manifest.Settings.Platform.Arch == "" {
		manifest.Settings.Platform = platform.Current()
	}
	if manifest.Dependencies == nil {
		manifest.Dependencies = make(map[string]string)
	}
	if manifest.Registry == nil {
		manifest.Registry = make(map[string]types.Package)
	}
	if manifest.Scripts == nil {
		manifest.Scripts = make(map[string]types.Script)
	}
	if manifest.Hooks == nil {
		manifest.Hooks = make(map[string]types.Hook)
	}

	return &Project{Root: filepath.Dir(path), Manifest: manifest}, nil
}

// LockPath returns the path of this project's lock file.
func (p *Project) LockPath() string {
	return filepath.Join(p.Root, LockFileName)
}

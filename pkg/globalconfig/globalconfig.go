// Package globalconfig manages config/global.toml, the one piece of global
// vx state that isn't part of the content-addressed store: per-tool default
// version pins set by `vx switch`. Load
// follows the default-on-missing-file pattern tsuku's internal/userconfig
// uses for ~/.tsuku/config.toml; Save follows its write-temp-then-rename
// atomic-write pattern.
package globalconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the decoded shape of config/global.toml.
type Config struct {
	// Defaults pins a tool to a specific installed version so dispatch
	// picks it over "latest installed" when the dispatch names no version
	// (`vx switch <tool>@<ver>`); project manifest constraints are not read.
	Defaults map[string]string `toml:"defaults,omitempty"`
}

// Default returns an empty Config, no tool has a pinned default version.
func Default() *Config {
	return &Config{Defaults: make(map[string]string)}
}

// Load reads path, returning Default() if it doesn't exist yet. Only a
// parse failure is a reportable error, a missing global config is the
// normal state for a vx install that has never run `vx switch`.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Defaults == nil {
		cfg.Defaults = make(map[string]string)
	}
	return cfg, nil
}

// Save writes cfg to path atomically: a temp file in the same directory,
// fsynced, then renamed into place, so a reader never observes a partially
// written global.toml.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// SetDefault pins tool to version in path's config, creating the file if
// it doesn't exist yet (`vx switch`).
func SetDefault(path, tool, version string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	cfg.Defaults[tool] = version
	return Save(path, cfg)
}

// GetDefault returns the pinned version for tool, if any.
func GetDefault(path, tool string) (string, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", false, err
	}
	v, ok := cfg.Defaults[tool]
	return v, ok, nil
}

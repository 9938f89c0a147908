package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
)

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindUpward(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "dependencies: {}\n")

	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := Find(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(found) != root {
		t.Errorf("Find() = %s, expected root %s", found, root)
	}
}

func TestFindNotFound(t *testing.T) {
	if _, err := Find(t.TempDir()); err == nil {
		t.Error("expected error when no vx.yaml exists")
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "dependencies:\n  jq: \"^1.7\"\n")

	proj, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proj.Manifest.Settings.BinDir == "" {
		t.Error("expected default bin dir")
	}
	if proj.Manifest.Dependencies["jq"] != "^1.7" {
		t.Errorf("unexpected dependencies: %+v", proj.Manifest.Dependencies)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "bogus_top_level_key: true\n")

	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown top-level key")
	}
}

func TestResolveScriptOrderCycle(t *testing.T) {
	scripts := map[string]types.Script{
		"a": {Run: "echo a", Depends: []string{"b"}},
		"b": {Run: "echo b", Depends: []string{"a"}},
	}
	if _, err := ResolveScriptOrder(scripts, "a"); err == nil {
		t.Error("expected cycle error")
	}
}

func TestResolveScriptOrderDepsFirst(t *testing.T) {
	scripts := map[string]types.Script{
		"build": {Run: "echo build", Depends: []string{"generate"}},
		"generate": {Run: "echo generate"},
	}
	order, err := ResolveScriptOrder(scripts, "build")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "generate" || order[1] != "build" {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestWriteAndReadLockFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LockFileName)

	lock := &types.LockFile{
		Version: "1.0",
		Dependencies: map[string]types.LockEntry{
			"jq": {Version: "1.7.1"},
		},
	}
	if err := WriteLockFile(path, lock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ReadLockFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Dependencies["jq"].Version != "1.7.1" {
		t.Errorf("unexpected round-trip: %+v", got)
	}
}

func TestReadLockFileMissing(t *testing.T) {
	got, err := ReadLockFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || got != nil {
		t.Errorf("expected nil, nil for missing lock file, got %v, %v", got, err)
	}
}

func TestLoadScriptForms(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
scripts:
  quick: "echo quick"
  full:
    run: "echo full"
    cwd: "sub"
    env:
      STAGE: "ci"
    depends: ["quick"]
`)

	proj, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proj.Manifest.Scripts["quick"].Run != "echo quick" {
		t.Errorf("shorthand script: %+v", proj.Manifest.Scripts["quick"])
	}
	full := proj.Manifest.Scripts["full"]
	if full.Run != "echo full" || full.Cwd != "sub" || full.Env["STAGE"] != "ci" || len(full.Depends) != 1 {
		t.Errorf("mapping script: %+v", full)
	}
}

func TestLoadHookForms(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
hooks:
  pre_setup: "echo one"
  post_setup:
    - "echo two"
    - "echo three"
`)

	proj, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proj.Manifest.Hooks["pre_setup"].Run != "echo one" {
		t.Errorf("scalar hook: %+v", proj.Manifest.Hooks["pre_setup"])
	}
	if proj.Manifest.Hooks["post_setup"].Run != "echo two && echo three" {
		t.Errorf("list hook: %+v", proj.Manifest.Hooks["post_setup"])
	}
}

func TestLoadEnvBlock(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
env:
  CGO_ENABLED: "0"
  required:
    API_TOKEN: "token used by the deploy script"
  optional:
    DEBUG: "extra logging"
`)

	proj, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := proj.Manifest.Env
	if env == nil {
		t.Fatal("expected env block")
	}
	if env.Static["CGO_ENABLED"] != "0" {
		t.Errorf("static env: %+v", env.Static)
	}
	if env.Required["API_TOKEN"] == "" || env.Optional["DEBUG"] == "" {
		t.Errorf("declared env: %+v", env)
	}
}

func TestComposeEnv(t *testing.T) {
	p := &Project{
		Root: "/work/demo",
		Manifest: types.DepsConfig{
			Settings: types.Settings{Platform: platform.Platform{OS: "linux", Arch: "amd64"}},
			Env: &types.ProjectEnv{
				Static: map[string]string{"TARGET": "{{.os}}-{{.arch}}"},
			},
		},
	}

	pairs, err := p.composeEnv(map[string]string{"STAGE": "ci"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := map[string]bool{}
	for _, pair := range pairs {
		got[pair] = true
	}
	if !got["TARGET=linux-amd64"] || !got["STAGE=ci"] {
		t.Errorf("unexpected env pairs: %v", pairs)
	}
}

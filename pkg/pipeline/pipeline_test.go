package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vx-dev/vx/pkg/platform"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseDecodesSteps(t *testing.T) {
	steps, err := Parse([]string{
		`rm(glob('*.bat'))`,
		`move('nested/tool', 'tool')`,
		`chmod(493, 'tool')`,
	}, Env{Name: "tool", Version: "1.0.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d: %v", len(steps), steps)
	}
	if steps[0].Kind != "delete" || steps[0].Patterns[0] != "*.bat" {
		t.Errorf("unexpected delete step: %+v", steps[0])
	}
	if steps[1].Kind != "move" || steps[1].Src != "nested/tool" || steps[1].Dst != "tool" {
		t.Errorf("unexpected move step: %+v", steps[1])
	}
	if steps[2].Kind != "chmod" || steps[2].Mode != 0o755 {
		t.Errorf("unexpected chmod step: %+v", steps[2])
	}
}

func TestParseUsesTemplateVariables(t *testing.T) {
	steps, err := Parse([]string{`move(name + '-' + version + '/' + name, name)`},
		Env{Name: "jq", Version: "1.7.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if steps[0].Src != "jq-1.7.1/jq" || steps[0].Dst != "jq" {
		t.Errorf("unexpected templated step: %+v", steps[0])
	}
}

func TestParseRejectsNonStepResult(t *testing.T) {
	if _, err := Parse([]string{`"just a string"`}, Env{}); err == nil {
		t.Error("expected error for an expression that returns no step")
	}
}

func TestRunDeleteAndMove(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, "tool.bat"))
	writeFile(t, filepath.Join(work, "nested", "tool"))

	steps, err := Parse([]string{`rm(glob('*.bat'))`, `move('nested/tool', 'tool')`}, Env{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Run(steps, Env{WorkDir: work}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(work, "tool.bat")); !os.IsNotExist(err) {
		t.Error("expected tool.bat to be deleted")
	}
	if _, err := os.Stat(filepath.Join(work, "tool")); err != nil {
		t.Errorf("expected moved tool at work root: %v", err)
	}
}

func TestRunFlatten(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, "tool-1.0.0-linux", "bin", "tool"))

	steps, err := Parse([]string{`flatten('tool-*')`}, Env{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Run(steps, Env{WorkDir: work}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(work, "bin", "tool")); err != nil {
		t.Errorf("expected flattened bin/tool: %v", err)
	}
	if _, err := os.Stat(filepath.Join(work, "tool-1.0.0-linux")); !os.IsNotExist(err) {
		t.Error("expected wrapper directory to be removed")
	}
}

func TestRunChmod(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, "tool"))

	steps, err := Parse([]string{`chmod(493, 'tool')`}, Env{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Run(steps, Env{WorkDir: work}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(filepath.Join(work, "tool"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %o, expected 755", info.Mode().Perm())
	}
}

func TestForPlatformGating(t *testing.T) {
	entries := []string{
		"!windows*: rm(glob('*.bat'))",
		"linux*: chmod(493, 'tool')",
		"move('a', 'b')",
	}

	filtered := ForPlatform(entries, platform.Platform{OS: "linux", Arch: "amd64"})
	if len(filtered) != 3 {
		t.Fatalf("expected all 3 entries on linux, got %v", filtered)
	}

	filtered = ForPlatform(entries, platform.Platform{OS: "windows", Arch: "amd64"})
	if len(filtered) != 1 || filtered[0] != "move('a', 'b')" {
		t.Errorf("expected only the ungated entry on windows, got %v", filtered)
	}
}

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vx-dev/vx/pkg/platform"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir())
}

func TestCommitAndLookup(t *testing.T) {
	s := testStore(t)
	plat := platform.Platform{OS: "linux", Arch: "amd64"}

	staged := filepath.Join(t.TempDir(), "staged")
	if err := writeFile(t, filepath.Join(staged, "bin", "tool"), "#!/bin/sh\n"); err != nil {
		t.Fatal(err)
	}

	rec := Record{Tool: "jq", Version: "1.7.1", Platform: plat, Provider: "jq", Executable: filepath.Join(staged, "bin", "tool")}
	if err := s.Commit(staged, rec); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	got, ok, err := s.Lookup("jq", "1.7.1", plat)
	if err != nil || !ok {
		t.Fatalf("lookup failed: ok=%v err=%v", ok, err)
	}
	if got.Provider != "jq" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestVersionsEmpty(t *testing.T) {
	s := testStore(t)
	versions, err := s.Versions("nonexistent")
	if err != nil || len(versions) != 0 {
		t.Errorf("expected no versions, got %v, err=%v", versions, err)
	}
}

func TestAcquireLockExcludes(t *testing.T) {
	home := t.TempDir()
	paths := platform.NewPaths(home)
	plat := platform.Platform{OS: "linux", Arch: "amd64"}

	lock, err := AcquireLock(paths, "jq", "1.7.1", plat, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lock.Release()

	_, err = AcquireLock(paths, "jq", "1.7.1", plat, 300*time.Millisecond)
	if err == nil {
		t.Error("expected second lock acquisition to time out")
	}
}

func writeFile(t *testing.T, path, contents string) error {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(contents), 0o755)
}

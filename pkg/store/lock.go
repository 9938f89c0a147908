package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vx-dev/vx/pkg/platform"
)

// InstallLock guards a single (tool, version, platform) triple so that two
// concurrent `vx install`/auto-install invocations never race to populate
// the same store directory. It is a plain
// O_EXCL-created file stamped with the holding PID, the lock only needs
// exclusive-create semantics, which os.OpenFile already provides, so no
// third-party file-locking library earns its keep here.
type InstallLock struct {
	path string
	file *os.File
}

// AcquireLock blocks (polling) until it can create the lock file for the
// given triple, or returns an error once timeout elapses.
func AcquireLock(paths platform.Paths, tool, version string, plat platform.Platform, timeout time.Duration) (*InstallLock, error) {
	path := paths.LockPath(tool, version, plat)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating locks directory: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			return &InstallLock{path: path, file: f}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lock file %s: %w", path, err)
		}

		if stale, _ := isStale(path); stale {
			os.Remove(path)
			continue
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for install lock on %s@%s (%s)", tool, version, plat)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Release removes the lock file, making the triple available again.
func (l *InstallLock) Release() error {
	l.file.Close()
	return os.Remove(l.path)
}

// isStale reports whether the process that created a lock file is no
// longer alive, used to recover from a crashed installer that never called
// Release. A lock older than five minutes whose PID is not running is
// considered abandoned.
func isStale(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if time.Since(info.ModTime()) < 5*time.Minute {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return true, nil
	}
	pid, err := strconv.Atoi(string(trimNewline(data)))
	if err != nil {
		return true, nil
	}

	return !processAlive(pid), nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

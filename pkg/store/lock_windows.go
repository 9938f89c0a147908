//go:build windows

package store

import "os"

// On Windows, os.FindProcess itself reports whether the PID exists; there
// is no zero-signal probe available as on Unix.
func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}

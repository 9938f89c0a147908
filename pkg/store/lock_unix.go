//go:build !windows

package store

import (
	"os"
	"syscall"
)

// processAlive probes liveness with signal 0, which delivers no signal but
// still reports ESRCH if the PID is gone.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

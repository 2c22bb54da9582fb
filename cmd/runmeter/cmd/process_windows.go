//go:build windows

package cmd

import (
	"os"
	"os/exec"
)

// detach is a no-op on Windows; the daemon is not tied to the console
// session the way a Unix child is to its process group.
func detach(cmd *exec.Cmd) {}

// processAlive reports whether pid refers to a running process.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()
	return true
}

// stopProcess terminates the daemon. Windows has no SIGTERM, so the
// daemon's state file is cleaned up by the next start instead of by a
// graceful shutdown.
func stopProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

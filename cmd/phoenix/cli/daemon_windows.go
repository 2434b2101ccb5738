//go:build windows

package cli

import (
	"os"
	"os/exec"
	"syscall"
)

const createNewProcessGroup = 0x00000200

// setSysProcAttr detaches the child from the console's Ctrl+C group.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}

// isProcessRunning reports whether pid refers to a live process. Windows
// only lets FindProcess succeed for processes that exist.
func isProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()
	return true
}

// stopProcess terminates the server. Windows has no SIGTERM, so in-flight
// requests are not drained.
func stopProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// https://docs.microsoft.com/en-us/windows/win32/procthread/process-creation-flags
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

func killProcessGroup(c *exec.Cmd) {
	if c.Process != nil {
		c.Process.Kill()
	}
}

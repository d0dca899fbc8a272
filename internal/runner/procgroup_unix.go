//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// Starts the child as the leader of a new process group.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// Kills every process in the child's group.
func killProcessGroup(c *exec.Cmd) {
	if c.Process == nil {
		return
	}
	syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
}

//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// kill sends SIGKILL to the command's process group. The pty child is a
// session leader, so the group also holds anything the shell spawned.
func kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err == nil {
		return nil
	}
	return cmd.Process.Kill()
}

//go:build !windows

package engine

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func configureCommandForTermination(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateCommand asks the whole process group to stop so helpers such as
// ffmpeg get the signal too. It never force-kills.
func terminateCommand(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	if cmd.Process.Pid > 0 {
		if err := unix.Kill(-cmd.Process.Pid, unix.SIGTERM); err == nil {
			return
		}
	}
	_ = cmd.Process.Signal(unix.SIGTERM)
}

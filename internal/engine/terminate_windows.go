//go:build windows

package engine

import "os/exec"

func configureCommandForTermination(cmd *exec.Cmd) {}

// Windows has no SIGTERM equivalent for console children, so this kills.
func terminateCommand(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

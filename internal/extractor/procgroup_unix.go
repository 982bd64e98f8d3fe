//go:build unix

package extractor

import (
	"errors"
	"os/exec"
	"syscall"

	"videotranscriber/internal/metrics"
)

// setProcessGroup starts the extractor as a group leader so its children
// (ffmpeg during merges) are signalled with it.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func terminateGroup(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGTERM, "SIGTERM")
}

func killGroup(cmd *exec.Cmd) error {
	return signalGroup(cmd, syscall.SIGKILL, "SIGKILL")
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal, name string) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	// Setpgid makes PGID == PID; a negative pid addresses the whole group.
	if err := syscall.Kill(-cmd.Process.Pid, sig); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			metrics.IncTerminate(name, "esrch")
			return nil
		}
		metrics.IncTerminate(name, "error")
		return err
	}
	metrics.IncTerminate(name, "sent")
	return nil
}

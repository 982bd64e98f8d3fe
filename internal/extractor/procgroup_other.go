//go:build !unix

package extractor

import (
	"errors"
	"os"
	"os/exec"

	"videotranscriber/internal/metrics"
)

func setProcessGroup(cmd *exec.Cmd) {}

// terminateGroup falls back to killing the root process; there is no portable
// group signal here.
func terminateGroup(cmd *exec.Cmd) error {
	return killRoot(cmd, "SIGTERM")
}

func killGroup(cmd *exec.Cmd) error {
	return killRoot(cmd, "SIGKILL")
}

func killRoot(cmd *exec.Cmd, name string) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			metrics.IncTerminate(name, "esrch")
			return nil
		}
		metrics.IncTerminate(name, "error")
		return err
	}
	metrics.IncTerminate(name, "sent")
	return nil
}

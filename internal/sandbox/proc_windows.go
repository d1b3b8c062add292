//go:build windows

package sandbox

import "os/exec"

func setProcAttrs(cmd *exec.Cmd) {}

func killTree(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

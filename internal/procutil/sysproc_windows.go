//go:build windows

package procutil

import (
	"os/exec"
	"syscall"
)

// HideWindow stops cmd from opening a console window. Existing SysProcAttr
// fields are kept.
func HideWindow(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}

//go:build !windows

package tunnel

import "syscall"

// detachAttr puts the daemon in its own session so it survives this
// process and never receives our terminal's signals.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true,
	}
}

//go:build windows

package tunnel

import "syscall"

// DETACHED_PROCESS, not exposed by package syscall.
const detachedProcess = 0x00000008

// detachAttr starts the daemon windowless in its own process group,
// detached from our console.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
	}
}

//go:build !windows

package process

import "syscall"

// Chrome is launched as a group leader, so the group id is its pid.
func killTree(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}

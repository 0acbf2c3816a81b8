// Package process terminates browser process trees left behind by the PDF
// exporter.
package process

import "errors"

// ErrInvalidPID is returned for pids that would target the caller's own
// process group.
var ErrInvalidPID = errors.New("process: invalid pid")

// KillTree kills pid and every process it spawned.
func KillTree(pid int) error {
	if pid <= 0 {
		return ErrInvalidPID
	}
	return killTree(pid)
}

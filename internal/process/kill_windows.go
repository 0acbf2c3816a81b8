//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

func killTree(pid int) error {
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}

// Copyright © 2021-2025 The Gomon Project.

//go:build !windows

package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Exists reports whether the pid maps to a process, whether or not it may be signalled.
func Exists(pid Pid) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(int(pid), 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

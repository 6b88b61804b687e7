//go:build linux

package hostinfo

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Machine returns the kernel-reported machine string, e.g. "x86_64".
func Machine() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(uts.Machine[:]), nil
}

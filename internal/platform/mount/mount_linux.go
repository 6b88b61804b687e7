//go:build linux

package mount

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SyscallBinder performs bind mounts through the mount syscall.
type SyscallBinder struct{}

// NewBinder returns a Binder backed by the mount syscall.
func NewBinder() Binder {
	return SyscallBinder{}
}

// Bind implements Binder.
func (SyscallBinder) Bind(source, target string) error {
	if err := unix.Mount(source, target, "", unix.MS_BIND, ""); err != nil {
		return fmt.Errorf("bind mount %s onto %s: %w", source, target, err)
	}
	return nil
}

//go:build !linux

package hostinfo

import "runtime"

// Machine returns a kernel-style machine string derived from the build
// architecture. Non-Linux hosts only run the dry-run paths, so the compiled
// architecture is an acceptable stand-in for uname.
func Machine() (string, error) {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64", nil
	case "arm64":
		return "aarch64", nil
	default:
		return runtime.GOARCH, nil
	}
}

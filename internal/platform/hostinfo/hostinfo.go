// Package hostinfo reports facts about the host the bootstrap runs on.
package hostinfo

// Architecture represents a normalized CPU architecture.
type Architecture string

const (
	// ArchAMD64 represents x86_64 architecture (Intel/AMD processors).
	ArchAMD64 Architecture = "amd64"

	// ArchARM64 represents ARM64 architecture (Graviton and friends).
	ArchARM64 Architecture = "arm64"

	// ArchUnknown represents any machine string outside the known set.
	ArchUnknown Architecture = "unknown"
)

// MapArchitecture normalizes a kernel machine string to an Architecture.
// The mapping is total: unrecognized values become ArchUnknown, never an
// error, so an odd kernel string cannot abort a bootstrap.
//
// Examples:
//   - "x86_64"  -> amd64
//   - "aarch64" -> arm64
//   - "riscv64" -> unknown
func MapArchitecture(machine string) Architecture {
	switch machine {
	case "x86_64":
		return ArchAMD64
	case "aarch64":
		return ArchARM64
	default:
		return ArchUnknown
	}
}

// String returns the string representation of the architecture.
func (a Architecture) String() string {
	return string(a)
}

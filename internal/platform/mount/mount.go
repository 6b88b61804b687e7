// Package mount provides bind mounts and mount table persistence.
package mount

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ErrUnsupported is returned on platforms without bind mount support.
var ErrUnsupported = errors.New("bind mounts are not supported on this platform")

// Binder attaches one directory tree onto another.
type Binder interface {
	Bind(source, target string) error
}

// FstabEditor persists mount entries in the system mount table so bind
// mounts survive a reboot.
type FstabEditor struct {
	fs   afero.Fs
	path string
}

// NewFstabEditor creates an editor for the mount table at path.
func NewFstabEditor(fs afero.Fs, path string) *FstabEditor {
	return &FstabEditor{fs: fs, path: path}
}

// BindEntry renders the mount table line for a bind of source onto target.
func BindEntry(source, target string) string {
	return fmt.Sprintf("%s %s none defaults,bind 0 0", source, target)
}

// EnsureBindEntry appends the bind entry for source on target unless an
// identical line is already present. It reports whether a line was added.
func (e *FstabEditor) EnsureBindEntry(source, target string) (bool, error) {
	entry := BindEntry(source, target)

	existing, err := afero.ReadFile(e.fs, e.path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read %s: %w", e.path, err)
	}

	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == entry {
			return false, nil
		}
	}

	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := afero.WriteFile(e.fs, e.path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", e.path, err)
	}
	return true, nil
}

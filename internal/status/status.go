// Package status tracks bootstrap progress through a durable marker file.
//
// The marker is a single-line plain-text scalar. An absent marker means the
// host has never attempted bootstrap; "completed" means a prior run finished
// and re-invocations must be no-ops; anything else means a prior run began
// and did not finish, which is fatal. A partially initialized host is never
// resumed, it is replaced.
package status

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Status is the recorded bootstrap state of the host.
type Status string

const (
	// NotStarted is reported when the marker file is absent.
	NotStarted Status = "not-started"
	// Started is written before any side effect of a run.
	Started Status = "started"
	// Completed is written as the last observable action of a successful run.
	Completed Status = "completed"
)

// ErrPriorRun indicates the marker records an earlier run that never
// completed. The host must be replaced, not re-bootstrapped.
var ErrPriorRun = errors.New("previous bootstrap did not complete")

// Tracker reads and writes the bootstrap marker through an injected
// filesystem so the gate logic is testable without touching the host.
type Tracker struct {
	fs   afero.Fs
	path string
}

// NewTracker returns a Tracker for the marker at path.
func NewTracker(fs afero.Fs, path string) *Tracker {
	return &Tracker{fs: fs, path: path}
}

// Path returns the marker file location.
func (t *Tracker) Path() string {
	return t.path
}

// Current reports the recorded status. An absent marker is NotStarted; an
// existing marker maps to its trimmed content, which may be a value outside
// the known set.
func (t *Tracker) Current() (Status, error) {
	data, err := afero.ReadFile(t.fs, t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NotStarted, nil
		}
		return NotStarted, fmt.Errorf("read bootstrap marker %s: %w", t.path, err)
	}
	return Status(strings.TrimSpace(string(data))), nil
}

// Begin applies the bootstrap gate and reports whether the run may proceed.
//
// An absent marker transitions to Started and proceeds. A Completed marker
// does not proceed and performs no writes. Any other marker content returns
// an error wrapping ErrPriorRun.
func (t *Tracker) Begin() (bool, error) {
	current, err := t.Current()
	if err != nil {
		return false, err
	}
	switch current {
	case NotStarted:
		if err := t.write(Started); err != nil {
			return false, err
		}
		return true, nil
	case Completed:
		return false, nil
	default:
		return false, fmt.Errorf("%w: marker %s contains %q", ErrPriorRun, t.path, string(current))
	}
}

// Complete records a successful run. Callers must invoke this only after the
// success signal has been sent; the marker write is the final observable
// action of bootstrap.
func (t *Tracker) Complete() error {
	return t.write(Completed)
}

// Reset removes the marker. This is an explicit operator action, never part
// of the bootstrap flow itself.
func (t *Tracker) Reset() error {
	if err := t.fs.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove bootstrap marker %s: %w", t.path, err)
	}
	return nil
}

func (t *Tracker) write(s Status) error {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := t.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create marker directory %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(t.fs, t.path, []byte(string(s)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write bootstrap marker %s: %w", t.path, err)
	}
	return nil
}

// Package systemd manages service units through systemctl.
package systemd

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Supervisor enables and starts service units.
type Supervisor interface {
	Enable(ctx context.Context, unit string) error
	Start(ctx context.Context, unit string) error
}

// Systemctl implements Supervisor by shelling out to systemctl.
type Systemctl struct {
	run Runner
}

// New creates a Systemctl that executes systemctl directly.
func New() *Systemctl {
	return NewWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).CombinedOutput()
	})
}

// NewWithRunner creates a Systemctl with a custom command runner.
func NewWithRunner(run Runner) *Systemctl {
	return &Systemctl{run: run}
}

// Enable implements Supervisor.
func (s *Systemctl) Enable(ctx context.Context, unit string) error {
	return s.systemctl(ctx, "enable", unit)
}

// Start implements Supervisor.
func (s *Systemctl) Start(ctx context.Context, unit string) error {
	return s.systemctl(ctx, "start", unit)
}

func (s *Systemctl) systemctl(ctx context.Context, verb, unit string) error {
	out, err := s.run(ctx, "systemctl", verb, unit)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("systemctl %s %s: %w: %s", verb, unit, err, msg)
		}
		return fmt.Errorf("systemctl %s %s: %w", verb, unit, err)
	}
	return nil
}

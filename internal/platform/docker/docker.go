// Package docker talks to the container runtime through its command line
// client.
package docker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Runtime reports container runtime availability and version.
type Runtime interface {
	// Version returns the client version string, e.g. "24.0.7". It does
	// not require a running daemon.
	Version(ctx context.Context) (string, error)
	// Ping returns nil once the daemon answers.
	Ping(ctx context.Context) error
}

// CLI implements Runtime by shelling out to the docker binary.
type CLI struct {
	run Runner
}

// New creates a CLI that executes docker directly.
func New() *CLI {
	return NewWithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).CombinedOutput()
	})
}

// NewWithRunner creates a CLI with a custom command runner.
func NewWithRunner(run Runner) *CLI {
	return &CLI{run: run}
}

// Version implements Runtime.
func (c *CLI) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "docker", "--version")
	if err != nil {
		return "", fmt.Errorf("query docker version: %w", err)
	}
	return ParseVersion(string(out))
}

// Ping implements Runtime.
func (c *CLI) Ping(ctx context.Context) error {
	if _, err := c.run(ctx, "docker", "ps", "-q"); err != nil {
		return fmt.Errorf("docker daemon not answering: %w", err)
	}
	return nil
}

// ParseVersion extracts the bare version from docker --version output such
// as "Docker version 24.0.7, build afdd53b".
func ParseVersion(out string) (string, error) {
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return "", fmt.Errorf("unexpected docker version output %q", strings.TrimSpace(out))
	}
	return strings.TrimSuffix(fields[2], ","), nil
}

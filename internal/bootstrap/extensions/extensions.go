// Package extensions applies operator-supplied host customizations, an
// environment file and a one-shot bootstrap script, both fetched from
// configured URLs.
package extensions

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/elasticci/stackboot/internal/bootstrap"
)

// scriptStaging is where the bootstrap script lands before execution. It is
// removed again once the script has run.
const scriptStaging = "/tmp/elastic_bootstrap"

// ScriptRunner executes a fetched script with the given environment.
type ScriptRunner func(ctx context.Context, path string, environ []string) error

// Phase fetches the optional environment file and runs the optional
// bootstrap script. Without either URL the phase is a no-op.
type Phase struct {
	run ScriptRunner
}

// New creates the extensions phase with the exec-based script runner.
func New() *Phase {
	return &Phase{run: runScript}
}

// NewWithRunner creates the extensions phase with a custom script runner.
func NewWithRunner(run ScriptRunner) *Phase {
	return &Phase{run: run}
}

// Name implements bootstrap.Phase.
func (p *Phase) Name() string {
	return "extensions"
}

// Run implements bootstrap.Phase.
func (p *Phase) Run(ctx *bootstrap.Context) error {
	if ctx.Config.EnvFileURL == "" && ctx.Config.BootstrapScriptURL == "" {
		ctx.Observer.Event(bootstrap.Event{
			Type:    bootstrap.EventResourceSkipped,
			Phase:   p.Name(),
			Message: "no extensions configured",
		})
		return nil
	}
	if ctx.DryRun {
		ctx.Observer.Event(bootstrap.Event{
			Type:    bootstrap.EventResourceSkipped,
			Phase:   p.Name(),
			Message: "dry run, extensions not applied",
		})
		return nil
	}

	if ctx.Config.EnvFileURL != "" {
		if err := p.fetchEnvFile(ctx); err != nil {
			return err
		}
	}
	if ctx.Config.BootstrapScriptURL != "" {
		if err := p.runBootstrapScript(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Phase) fetchEnvFile(ctx *bootstrap.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Fetch)
	defer cancel()

	dest := ctx.Config.Paths.EnvFile
	if err := ctx.Clients.Fetcher.Fetch(fetchCtx, ctx.Config.EnvFileURL, dest, 0o644); err != nil {
		return fmt.Errorf("fetch environment file: %w", err)
	}
	ctx.Observer.Event(bootstrap.Event{
		Type:     bootstrap.EventResourceCreated,
		Phase:    p.Name(),
		Resource: dest,
		Message:  "environment file installed",
	})
	return nil
}

// runBootstrapScript stages the script, executes it with the host's
// environment snapshot, and removes it again. A non-zero exit is fatal and
// the child's exit code is preserved for the process exit status.
func (p *Phase) runBootstrapScript(ctx *bootstrap.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Fetch)
	defer cancel()

	if err := ctx.Clients.Fetcher.Fetch(fetchCtx, ctx.Config.BootstrapScriptURL, scriptStaging, 0o755); err != nil {
		return fmt.Errorf("fetch bootstrap script: %w", err)
	}
	defer func() {
		_ = ctx.Fs.Remove(scriptStaging)
	}()

	ctx.Observer.Printf("Running bootstrap script from %s", ctx.Config.BootstrapScriptURL)
	if err := p.run(ctx, scriptStaging, ctx.Env.Environ()); err != nil {
		return fmt.Errorf("bootstrap script: %w", err)
	}

	ctx.Observer.Event(bootstrap.Event{
		Type:     bootstrap.EventResourceCreated,
		Phase:    p.Name(),
		Resource: scriptStaging,
		Message:  "bootstrap script completed",
	})
	return nil
}

func runScript(ctx context.Context, path string, environ []string) error {
	cmd := exec.CommandContext(ctx, path)
	cmd.Env = environ
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

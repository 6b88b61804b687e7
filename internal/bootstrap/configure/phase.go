// Package configure renders the host's generated configuration: the
// environment overlay script, the agent configuration file, and the
// lifecycle listener's environment file. Every artifact is fully rewritten
// on every run.
package configure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/elasticci/stackboot/internal/bootstrap"
)

// redactedToken stands in for the registration token in dry runs and
// redacted renders.
const redactedToken = "[REDACTED]"

// Phase renders the generated configuration artifacts.
type Phase struct {
	// RedactSecrets replaces the registration token with a placeholder
	// instead of resolving it. The render command sets this for --redact.
	RedactSecrets bool
}

// New creates the configure phase.
func New() *Phase {
	return &Phase{}
}

// Name implements bootstrap.Phase.
func (p *Phase) Name() string {
	return "configure"
}

// Run implements bootstrap.Phase.
func (p *Phase) Run(ctx *bootstrap.Context) error {
	cfg := ctx.Config

	version, err := ctx.Clients.Runtime.Version(ctx)
	if err != nil {
		ctx.Observer.Event(bootstrap.Event{
			Type:    bootstrap.EventValidationWarning,
			Phase:   p.Name(),
			Message: fmt.Sprintf("container runtime version unavailable, tag renders empty: %v", err),
		})
		version = ""
	}
	ctx.State.RuntimeVersion = version

	token, err := p.resolveToken(ctx)
	if err != nil {
		return err
	}
	ctx.State.AgentToken = token

	overlay, err := RenderOverlay(cfg, ctx.State)
	if err != nil {
		return err
	}
	if err := p.write(ctx, cfg.Paths.Overlay, overlay, 0o644); err != nil {
		return err
	}

	tags := AgentTags(cfg, version)
	if err := p.write(ctx, cfg.Paths.AgentConfig, RenderAgentConfig(cfg, token, tags), 0o600); err != nil {
		return err
	}

	lifecycled := RenderLifecycledConfig(ctx.State.Identity.Region, cfg.LifecycledHandler, cfg.LifecycledLogGroup)
	if err := p.write(ctx, cfg.Paths.LifecycledConfig, lifecycled, 0o644); err != nil {
		return err
	}

	return nil
}

// resolveToken fetches the decrypted registration token from the secret
// store. The value lands only in the agent configuration file; it is never
// logged. An empty token is fatal, everything else about rendering is
// permissive.
func (p *Phase) resolveToken(ctx *bootstrap.Context) (string, error) {
	if p.RedactSecrets || ctx.DryRun {
		return redactedToken, nil
	}

	sctx, cancel := context.WithTimeout(ctx, ctx.Timeouts.AWSCall)
	defer cancel()

	token, err := ctx.Clients.Secrets.Parameter(sctx, ctx.Config.TokenParameter, true)
	if err != nil {
		return "", fmt.Errorf("fetch agent token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("agent token parameter %s resolved empty", ctx.Config.TokenParameter)
	}
	return token, nil
}

func (p *Phase) write(ctx *bootstrap.Context, path, content string, mode os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := ctx.Fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(ctx.Fs, path, []byte(content), mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	ctx.Observer.Event(bootstrap.Event{
		Type:     bootstrap.EventResourceCreated,
		Phase:    p.Name(),
		Resource: path,
		Message:  "written",
		Fields:   map[string]string{"mode": fmt.Sprintf("%04o", mode)},
	})
	return nil
}

package handlers

import (
	"context"
	"path/filepath"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/bootstrap/configure"
)

// RenderOptions carries the render command's flag values.
type RenderOptions struct {
	ConfigPath string
	OutputDir  string
	Redact     bool
}

// Render writes the generated configuration artifacts to a local directory
// for inspection, leaving the host untouched.
//
// The instance region is taken from configuration instead of the metadata
// service so render works off-host. With Redact the registration token is a
// placeholder and the secret store is never contacted.
func Render(ctx context.Context, opts RenderOptions) error {
	fs := newFs()
	e := systemEnv()

	cfg, err := loadConfig(fs, e, opts.ConfigPath)
	if err != nil {
		return err
	}

	out := opts.OutputDir
	if out == "" {
		out = "."
	}
	cfg.Paths.Overlay = filepath.Join(out, filepath.Base(cfg.Paths.Overlay))
	cfg.Paths.AgentConfig = filepath.Join(out, filepath.Base(cfg.Paths.AgentConfig))
	cfg.Paths.LifecycledConfig = filepath.Join(out, filepath.Base(cfg.Paths.LifecycledConfig))

	clients := bootstrap.Clients{Runtime: newRuntime()}
	if !opts.Redact {
		secrets, err := newSecretsReader(ctx, cfg.Region)
		if err != nil {
			return err
		}
		clients.Secrets = secrets
	}

	bctx := bootstrap.NewContext(ctx, cfg, e, fs, clients)
	bctx.State.Identity.Region = cfg.Region

	phase := configure.New()
	phase.RedactSecrets = opts.Redact
	if err := phase.Run(bctx); err != nil {
		return err
	}

	bctx.Observer.Printf("Rendered configuration to %s", out)
	return nil
}

// Package storage prepares the agent's working directories, optionally
// relocating them onto ephemeral instance storage.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/platform/mount"
	"github.com/elasticci/stackboot/internal/platform/sysuser"
)

// Phase provisions the build workspace and, when enabled, the git mirror
// cache.
type Phase struct{}

// New creates the storage phase.
func New() *Phase {
	return &Phase{}
}

// Name implements bootstrap.Phase.
func (p *Phase) Name() string {
	return "storage"
}

type target struct {
	path  string
	label string
}

// Run implements bootstrap.Phase.
func (p *Phase) Run(ctx *bootstrap.Context) error {
	targets := []target{{path: ctx.Config.Paths.Builds, label: "build workspace"}}
	if ctx.Config.GitMirrorsEnabled {
		targets = append(targets, target{path: ctx.Config.Paths.GitMirrors, label: "git mirror cache"})
	}

	var acct sysuser.Account
	if !ctx.DryRun {
		var err error
		acct, err = ctx.Clients.Users.Lookup(ctx.Config.AgentUser)
		if err != nil {
			return fmt.Errorf("resolve agent account: %w", err)
		}
	}

	for _, tgt := range targets {
		if err := p.ensure(ctx, tgt, acct); err != nil {
			return fmt.Errorf("provision %s: %w", tgt.label, err)
		}
		ctx.State.Provisioned = append(ctx.State.Provisioned, tgt.path)
	}
	return nil
}

// ensure creates the logical path, relocates it onto instance storage when
// requested, and hands ownership to the agent account. The mount table entry
// is appended at most once so repeated provisioning cannot stack lines.
func (p *Phase) ensure(ctx *bootstrap.Context, tgt target, acct sysuser.Account) error {
	if err := ctx.Fs.MkdirAll(tgt.path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", tgt.path, err)
	}

	var physical string
	if ctx.Config.InstanceStorageEnabled {
		physical = filepath.Join(ctx.Config.Paths.EphemeralRoot, filepath.Base(tgt.path))
		if err := ctx.Fs.MkdirAll(physical, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", physical, err)
		}

		if ctx.DryRun {
			ctx.Observer.Event(bootstrap.Event{
				Type:     bootstrap.EventResourceSkipped,
				Phase:    p.Name(),
				Resource: tgt.path,
				Message:  "dry run, bind mount skipped",
			})
		} else if err := ctx.Clients.Binder.Bind(physical, tgt.path); err != nil {
			return fmt.Errorf("relocate onto instance storage: %w", err)
		}

		editor := mount.NewFstabEditor(ctx.Fs, ctx.Config.Paths.Fstab)
		added, err := editor.EnsureBindEntry(physical, tgt.path)
		if err != nil {
			return err
		}
		eventType := bootstrap.EventResourceExists
		message := "mount table entry already present"
		if added {
			eventType = bootstrap.EventResourceCreated
			message = "mount table entry appended"
		}
		ctx.Observer.Event(bootstrap.Event{
			Type:     eventType,
			Phase:    p.Name(),
			Resource: ctx.Config.Paths.Fstab,
			Message:  message,
			Fields:   map[string]string{"entry": mount.BindEntry(physical, tgt.path)},
		})
	}

	if ctx.DryRun {
		return nil
	}

	if err := sysuser.OwnTree(ctx.Fs, tgt.path, acct); err != nil {
		return err
	}
	if physical != "" {
		if err := sysuser.OwnTree(ctx.Fs, physical, acct); err != nil {
			return err
		}
	}

	ctx.Observer.Printf("Provisioned %s at %s for %s", tgt.label, tgt.path, acct.Name)
	return nil
}

// Package access installs the SSH authorized-keys list for the
// administrative login account.
package access

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/platform/sysuser"
)

// Phase fetches and installs an authorized-keys list when one is configured.
// Without a list URL the phase is a no-op.
type Phase struct{}

// New creates the access phase.
func New() *Phase {
	return &Phase{}
}

// Name implements bootstrap.Phase.
func (p *Phase) Name() string {
	return "access"
}

// Run implements bootstrap.Phase.
func (p *Phase) Run(ctx *bootstrap.Context) error {
	if ctx.Config.AuthorizedUsersURL == "" {
		ctx.Observer.Event(bootstrap.Event{
			Type:    bootstrap.EventResourceSkipped,
			Phase:   p.Name(),
			Message: "no authorized users url configured",
		})
		return nil
	}
	if ctx.DryRun {
		ctx.Observer.Event(bootstrap.Event{
			Type:     bootstrap.EventResourceSkipped,
			Phase:    p.Name(),
			Resource: ctx.Config.AuthorizedUsersURL,
			Message:  "dry run, authorized keys not installed",
		})
		return nil
	}

	acct, err := ctx.Clients.Users.Lookup(ctx.Config.AdminUser)
	if err != nil {
		return fmt.Errorf("resolve admin account: %w", err)
	}

	sshDir := filepath.Join(acct.Home, ".ssh")
	staging := filepath.Join(sshDir, ".authorized_keys.new")

	fetchCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Fetch)
	defer cancel()
	if err := ctx.Clients.Fetcher.Fetch(fetchCtx, ctx.Config.AuthorizedUsersURL, staging, 0o600); err != nil {
		return fmt.Errorf("fetch authorized users: %w", err)
	}

	data, err := afero.ReadFile(ctx.Fs, staging)
	if err != nil {
		return err
	}
	if err := ValidateAuthorizedKeys(data); err != nil {
		// An invalid list must not leave key material behind.
		_ = ctx.Fs.Remove(staging)
		return fmt.Errorf("validate authorized users: %w", err)
	}

	if err := ctx.Fs.Chmod(sshDir, 0o700); err != nil {
		return err
	}
	dest := filepath.Join(sshDir, "authorized_keys")
	if err := ctx.Fs.Rename(staging, dest); err != nil {
		return err
	}
	if err := ctx.Fs.Chmod(dest, 0o600); err != nil {
		return err
	}
	if err := sysuser.OwnTree(ctx.Fs, sshDir, acct); err != nil {
		return err
	}

	ctx.Observer.Event(bootstrap.Event{
		Type:     bootstrap.EventResourceCreated,
		Phase:    p.Name(),
		Resource: dest,
		Message:  "authorized keys installed",
		Fields:   map[string]string{"owner": acct.Name},
	})
	return nil
}

// ValidateAuthorizedKeys parses every key line and rejects the whole list on
// the first malformed entry. Blank lines and comments are ignored.
func ValidateAuthorizedKeys(data []byte) error {
	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(trimmed)); err != nil {
			return fmt.Errorf("authorized keys line %d: %w", i+1, err)
		}
	}
	return nil
}

package bootstrap

import (
	"context"

	"github.com/spf13/afero"

	"github.com/elasticci/stackboot/internal/config"
	"github.com/elasticci/stackboot/internal/env"
	"github.com/elasticci/stackboot/internal/platform/autoscaling"
	"github.com/elasticci/stackboot/internal/platform/cloudformation"
	"github.com/elasticci/stackboot/internal/platform/docker"
	"github.com/elasticci/stackboot/internal/platform/fetch"
	"github.com/elasticci/stackboot/internal/platform/hostinfo"
	"github.com/elasticci/stackboot/internal/platform/metadata"
	"github.com/elasticci/stackboot/internal/platform/mount"
	"github.com/elasticci/stackboot/internal/platform/ssm"
	"github.com/elasticci/stackboot/internal/platform/systemd"
	"github.com/elasticci/stackboot/internal/platform/sysuser"
)

// Identity describes the instance as resolved at the start of the run.
type Identity struct {
	InstanceID   string
	Region       string
	Architecture hostinfo.Architecture
}

// State holds the shared results of bootstrap phases.
// It is progressively populated as each phase completes and is read by the
// phases that follow.
type State struct {
	Identity       Identity
	RuntimeVersion string

	// AgentToken is the decrypted registration token. Its only sink is the
	// agent configuration file; it must never be logged.
	AgentToken string

	// Provisioned records the directories the storage phase set up.
	Provisioned []string
}

// NewState creates an empty bootstrap state.
func NewState() *State {
	return &State{}
}

// Clients bundles the platform collaborators a bootstrap run talks to.
type Clients struct {
	Metadata   metadata.Resolver
	Secrets    ssm.ParameterReader
	Fleet      autoscaling.HealthSetter
	Controller cloudformation.Signaler
	Fetcher    fetch.Fetcher
	Runtime    docker.Runtime
	Supervisor systemd.Supervisor
	Binder     mount.Binder
	Users      sysuser.Resolver
}

// Context wraps all dependencies and state needed by a bootstrap phase.
type Context struct {
	context.Context
	Config   *config.Config
	Env      *env.Environment
	State    *State
	Clients  Clients
	Fs       afero.Fs
	Observer Observer
	Metrics  *Metrics
	Timeouts *config.Timeouts

	// DryRun renders into a staging filesystem and skips mounts, ownership
	// changes, service activation, and controller signals.
	DryRun bool
}

// NewContext creates a bootstrap context with console observability.
func NewContext(ctx context.Context, cfg *config.Config, e *env.Environment, fs afero.Fs, clients Clients) *Context {
	timeouts := cfg.Timeouts
	if timeouts == nil {
		timeouts = config.LoadTimeouts(e)
	}
	return &Context{
		Context:  ctx,
		Config:   cfg,
		Env:      e,
		State:    NewState(),
		Clients:  clients,
		Fs:       fs,
		Observer: NewConsoleObserver(),
		Metrics:  NewMetrics(),
		Timeouts: timeouts,
	}
}

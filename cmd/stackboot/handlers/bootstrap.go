// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework. Collaborator
// construction goes through factory variables that tests replace.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/bootstrap/access"
	"github.com/elasticci/stackboot/internal/bootstrap/configure"
	"github.com/elasticci/stackboot/internal/bootstrap/extensions"
	"github.com/elasticci/stackboot/internal/bootstrap/identity"
	"github.com/elasticci/stackboot/internal/bootstrap/services"
	"github.com/elasticci/stackboot/internal/bootstrap/storage"
	"github.com/elasticci/stackboot/internal/config"
	"github.com/elasticci/stackboot/internal/env"
	"github.com/elasticci/stackboot/internal/platform/autoscaling"
	"github.com/elasticci/stackboot/internal/platform/cloudformation"
	"github.com/elasticci/stackboot/internal/platform/docker"
	"github.com/elasticci/stackboot/internal/platform/fetch"
	"github.com/elasticci/stackboot/internal/platform/metadata"
	"github.com/elasticci/stackboot/internal/platform/mount"
	"github.com/elasticci/stackboot/internal/platform/ssm"
	"github.com/elasticci/stackboot/internal/platform/systemd"
	"github.com/elasticci/stackboot/internal/platform/sysuser"
	"github.com/elasticci/stackboot/internal/status"
	"github.com/elasticci/stackboot/internal/util/prerequisites"
)

// ExitError carries the exit status a failed run must produce. Bootstrap
// script failures keep the child's own code; everything else exits 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitStatus maps a handler error to the process exit code.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// BootstrapOptions carries the bootstrap command's flag values.
type BootstrapOptions struct {
	ConfigPath string
	DryRun     bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newFs provides the filesystem all artifacts are written through.
	newFs = func() afero.Fs { return afero.NewOsFs() }

	// systemEnv snapshots the process environment.
	systemEnv = env.System

	// loadConfig builds the effective configuration.
	loadConfig = config.Load

	// newTracker creates the bootstrap marker gate.
	newTracker = func(fs afero.Fs, path string) *status.Tracker {
		return status.NewTracker(fs, path)
	}

	// newMetadataResolver creates the instance metadata client.
	newMetadataResolver = func() metadata.Resolver {
		return metadata.NewClient()
	}

	// newSecretsReader creates the parameter store client.
	newSecretsReader = func(ctx context.Context, region string) (ssm.ParameterReader, error) {
		return ssm.NewClient(ctx, region)
	}

	// newHealthSetter creates the scaling group health client.
	newHealthSetter = func(ctx context.Context, region string) (autoscaling.HealthSetter, error) {
		return autoscaling.NewClient(ctx, region)
	}

	// newSignaler creates the stack controller signal client.
	newSignaler = func(ctx context.Context, region, stackName, resource string) (cloudformation.Signaler, error) {
		return cloudformation.NewClient(ctx, region, stackName, resource)
	}

	// newFetcher creates the remote file fetcher.
	newFetcher = func(fs afero.Fs, cfg *config.Config) fetch.Fetcher {
		return fetch.NewClient(fs,
			fetch.WithS3Factory(fetch.DefaultS3Factory(cfg.Region, cfg.S3AccessKeyID, cfg.S3SecretAccessKey)),
			fetch.WithRetries(cfg.Timeouts.FetchRetries),
		)
	}

	// newRuntime creates the container runtime probe.
	newRuntime = func() docker.Runtime { return docker.New() }

	// newSupervisor creates the service supervisor.
	newSupervisor = func() systemd.Supervisor { return systemd.New() }

	// newBinder creates the bind mounter.
	newBinder = mount.NewBinder

	// newUsers creates the account resolver.
	newUsers = func() sysuser.Resolver { return sysuser.OSResolver{} }

	// checkHostPrereqs verifies the binaries the phases shell out to before
	// any of them run. A stack image without them cannot be provisioned.
	checkHostPrereqs = func(ctx *bootstrap.Context) error {
		if ctx.DryRun {
			ctx.Observer.Printf("Dry run, skipping host tool checks")
			return nil
		}
		results := prerequisites.Check(prerequisites.HostTools())
		for _, r := range results.Results {
			if r.Found {
				version := r.Version
				if version == "" {
					version = "unknown version"
				}
				ctx.Observer.Printf("Found %s (%s)", r.Tool.Name, version)
			}
		}
		if err := results.Error(); err != nil {
			return fmt.Errorf("host tools check failed: %w", err)
		}
		return nil
	}

	// bootstrapPhases lists the pipeline in execution order.
	bootstrapPhases = func() []bootstrap.Phase {
		return []bootstrap.Phase{
			identity.New(),
			configure.New(),
			storage.New(),
			access.New(),
			extensions.New(),
			services.New(),
		}
	}
)

// Bootstrap provisions this host into the build fleet.
//
// The run is gated on the durable marker: a completed host is a no-op, a
// half-provisioned host is fatal and reported, and a fresh host records
// "started" before any other side effect. On success the controller signal
// goes out before the marker flips to "completed", so the marker never
// claims a completion the stack has not heard about.
func Bootstrap(ctx context.Context, opts BootstrapOptions) error {
	fs := newFs()
	e := systemEnv()

	cfg, err := loadConfig(fs, e, opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.DryRun {
		// Reads fall through to the host, writes land in memory.
		fs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fs), afero.NewMemMapFs())
	}

	tracker := newTracker(fs, cfg.Paths.Marker)
	proceed, gateErr := tracker.Begin()
	if gateErr != nil && !errors.Is(gateErr, status.ErrPriorRun) {
		return gateErr
	}
	if gateErr == nil && !proceed {
		bootstrap.NewConsoleObserver().Printf("Bootstrap already completed, nothing to do")
		return nil
	}

	clients, buildErr := buildClients(ctx, fs, cfg, opts.DryRun)
	bctx := bootstrap.NewContext(ctx, cfg, e, fs, clients)
	bctx.DryRun = opts.DryRun
	reporter := bootstrap.NewReporter()

	if gateErr != nil {
		reporter.Failure(bctx, gateErr)
		return &ExitError{Code: 1, Err: gateErr}
	}
	if buildErr != nil {
		reporter.Failure(bctx, buildErr)
		return &ExitError{Code: 1, Err: buildErr}
	}

	if err := checkConfig(bctx); err != nil {
		reporter.Failure(bctx, err)
		return &ExitError{Code: 1, Err: err}
	}

	if err := checkHostPrereqs(bctx); err != nil {
		reporter.Failure(bctx, err)
		return &ExitError{Code: 1, Err: err}
	}

	start := time.Now()
	runErr := bootstrap.Run(bctx, bootstrapPhases()...)
	bctx.Metrics.ObserveRun(time.Since(start), runErr == nil)

	if runErr != nil {
		reporter.Failure(bctx, runErr)
		flushMetrics(bctx)
		return &ExitError{Code: bootstrap.ExitCode(runErr), Err: runErr}
	}

	reporter.Success(bctx)
	flushMetrics(bctx)

	// The marker write is the last observable action of a successful run.
	if err := tracker.Complete(); err != nil {
		return err
	}
	return nil
}

// checkConfig runs pre-flight validation on the loaded configuration.
// Warnings are surfaced on every run; errors abort a live run before any
// phase executes. A dry run reports them and carries on, since it neither
// registers agents nor signals the stack.
func checkConfig(ctx *bootstrap.Context) error {
	var fatal []string
	for _, ve := range ctx.Config.Validate() {
		switch {
		case !ve.IsError():
			ctx.Observer.Event(bootstrap.Event{
				Type:    bootstrap.EventValidationWarning,
				Message: ve.Message,
				Fields:  map[string]string{"field": ve.Field},
			})
		case ctx.DryRun:
			ctx.Observer.Printf("Configuration error (ignored for dry run): %s", ve.Message)
		default:
			fatal = append(fatal, ve.Error())
		}
	}
	if len(fatal) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(fatal, "\n  "))
	}
	return nil
}

// buildClients constructs the collaborators the pipeline needs. A dry run
// gets only the local, side-effect-free ones; the phases skip everything
// else themselves.
func buildClients(ctx context.Context, fs afero.Fs, cfg *config.Config, dryRun bool) (bootstrap.Clients, error) {
	clients := bootstrap.Clients{
		Runtime: newRuntime(),
	}
	if dryRun {
		return clients, nil
	}

	clients.Metadata = newMetadataResolver()
	clients.Fetcher = newFetcher(fs, cfg)
	clients.Supervisor = newSupervisor()
	clients.Binder = newBinder()
	clients.Users = newUsers()

	secrets, err := newSecretsReader(ctx, cfg.Region)
	if err != nil {
		return clients, err
	}
	clients.Secrets = secrets

	fleet, err := newHealthSetter(ctx, cfg.Region)
	if err != nil {
		return clients, err
	}
	clients.Fleet = fleet

	if cfg.StackName != "" {
		controller, err := newSignaler(ctx, cfg.Region, cfg.StackName, cfg.SignalResource)
		if err != nil {
			return clients, err
		}
		clients.Controller = controller
	}

	return clients, nil
}

// flushMetrics persists the run metrics; failures are logged, never fatal.
// Dry runs skip the write since the textfile lands on the real filesystem.
func flushMetrics(ctx *bootstrap.Context) {
	if ctx.DryRun {
		return
	}
	if err := ctx.Metrics.Flush(ctx.Config.Paths.Metrics); err != nil {
		ctx.Observer.Printf("Could not write metrics: %v", err)
	}
}

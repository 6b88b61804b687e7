// Package services waits for the container runtime and brings up the
// long-running host services.
package services

import (
	"fmt"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/util/retry"
)

// Phase activates the build agent and the lifecycle listener once the
// container runtime answers.
type Phase struct{}

// New creates the services phase.
func New() *Phase {
	return &Phase{}
}

// Name implements bootstrap.Phase.
func (p *Phase) Name() string {
	return "services"
}

// Run implements bootstrap.Phase.
func (p *Phase) Run(ctx *bootstrap.Context) error {
	if ctx.DryRun {
		ctx.Observer.Event(bootstrap.Event{
			Type:    bootstrap.EventResourceSkipped,
			Phase:   p.Name(),
			Message: "dry run, services not started",
		})
		return nil
	}

	if err := p.waitForRuntime(ctx); err != nil {
		return err
	}

	// The agent comes up before the lifecycle listener so a termination
	// notice arriving mid-bootstrap finds an agent to drain.
	for _, unit := range []string{ctx.Config.AgentUnit, ctx.Config.LifecycledUnit} {
		if err := ctx.Clients.Supervisor.Enable(ctx, unit); err != nil {
			return err
		}
		if err := ctx.Clients.Supervisor.Start(ctx, unit); err != nil {
			return err
		}
		ctx.Observer.Printf("Service %s enabled and started", unit)
	}
	return nil
}

// waitForRuntime polls the container runtime until it answers, waiting a
// little longer before each further attempt.
func (p *Phase) waitForRuntime(ctx *bootstrap.Context) error {
	err := retry.WithLinearBackoff(ctx, func() error {
		return ctx.Clients.Runtime.Ping(ctx)
	},
		retry.WithMaxRetries(ctx.Timeouts.RuntimePollAttempts-1),
		retry.WithInitialDelay(ctx.Timeouts.RuntimePollInterval),
	)
	if err != nil {
		return fmt.Errorf("container runtime never became ready: %w", err)
	}
	ctx.Observer.Printf("Container runtime is answering")
	return nil
}

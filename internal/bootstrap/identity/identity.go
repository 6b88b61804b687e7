// Package identity resolves which instance this is before anything else
// runs.
package identity

import (
	"context"
	"fmt"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/platform/hostinfo"
)

// Phase resolves the instance identity from the metadata service and the
// kernel.
type Phase struct{}

// New creates the identity phase.
func New() *Phase {
	return &Phase{}
}

// Name implements bootstrap.Phase.
func (p *Phase) Name() string {
	return "identity"
}

// Run implements bootstrap.Phase. The instance id is required; the
// architecture mapping is total and never fatal.
func (p *Phase) Run(ctx *bootstrap.Context) error {
	machine, err := hostinfo.Machine()
	if err != nil {
		ctx.Observer.Printf("Could not read machine architecture: %v", err)
	}
	ctx.State.Identity.Architecture = hostinfo.MapArchitecture(machine)

	if ctx.DryRun {
		ctx.State.Identity.InstanceID = "i-dryrun"
		ctx.State.Identity.Region = ctx.Config.Region
		ctx.Observer.Printf("Dry run, skipping instance metadata")
		return nil
	}

	mctx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Metadata)
	defer cancel()

	instanceID, err := ctx.Clients.Metadata.InstanceID(mctx)
	if err != nil {
		return fmt.Errorf("resolve instance id: %w", err)
	}
	if instanceID == "" {
		return fmt.Errorf("metadata service returned an empty instance id")
	}
	ctx.State.Identity.InstanceID = instanceID

	region := ctx.Config.Region
	if region == "" {
		region, err = ctx.Clients.Metadata.Region(mctx)
		if err != nil {
			return fmt.Errorf("resolve region: %w", err)
		}
	}
	ctx.State.Identity.Region = region

	ctx.Observer.Printf("Instance %s (%s) in %s", instanceID, ctx.State.Identity.Architecture, region)
	return nil
}

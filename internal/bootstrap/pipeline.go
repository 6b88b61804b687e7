package bootstrap

import (
	"fmt"
	"time"
)

// Phase is one step of the bootstrap sequence.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Run executes the phase against the shared context.
	Run(ctx *Context) error
}

// PhaseError wraps a phase failure with the name of the phase that produced
// it, so the failure path can name the step in its diagnostics.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Run executes all bootstrap phases sequentially, stopping at the first
// failure.
func Run(ctx *Context, phases ...Phase) error {
	start := time.Now()
	ctx.Observer.Printf("Starting bootstrap with %d phases...", len(phases))

	for i, phase := range phases {
		phaseStart := time.Now()
		label := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(phases))

		LogPhaseStart(ctx.Observer, label)

		err := phase.Run(ctx)
		ctx.Metrics.ObservePhase(phase.Name(), time.Since(phaseStart), err == nil)
		if err != nil {
			LogPhaseFailed(ctx.Observer, label, err)
			return &PhaseError{Phase: phase.Name(), Err: err}
		}

		LogPhaseComplete(ctx.Observer, label, time.Since(phaseStart))
	}

	ctx.Observer.Printf("Bootstrap completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

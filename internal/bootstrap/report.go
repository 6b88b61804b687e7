package bootstrap

import (
	"context"
	"errors"
	"os/exec"
	"sync"

	"github.com/elasticci/stackboot/internal/platform/cloudformation"
)

// Reporter delivers the run outcome to the fleet manager and the
// provisioning controller. A run sends at most one controller signal.
type Reporter struct {
	mu       sync.Mutex
	signaled bool
}

// NewReporter creates a Reporter that has not signaled yet.
func NewReporter() *Reporter {
	return &Reporter{}
}

// ExitCode maps a bootstrap failure to the process exit code. A child
// process failure keeps its real exit code; every other failure is 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// Failure reports a failed run: the instance is marked unhealthy at the
// fleet manager (best-effort) and the controller receives one failure
// signal. Reporting problems are logged and swallowed so they never mask
// the original error.
func (r *Reporter) Failure(ctx *Context, err error) {
	code := ExitCode(err)

	phase := "bootstrap"
	var phaseErr *PhaseError
	if errors.As(err, &phaseErr) {
		phase = phaseErr.Phase
	}

	lastLine := ctx.Observer.LastLine()
	ctx.Observer.Printf("Bootstrap failed in %s: %v (exit code %d, last line: %q)", phase, err, code, lastLine)

	instanceID := r.resolveInstanceID(ctx)

	if instanceID != "" && ctx.Clients.Fleet != nil {
		if healthErr := ctx.Clients.Fleet.SetUnhealthy(ctx, instanceID); healthErr != nil {
			ctx.Observer.Printf("Could not mark instance unhealthy: %v", healthErr)
		}
	}

	r.signal(ctx, false, instanceID)
}

// Success reports a completed run with exactly one controller signal. A
// rejected signal means another instance already satisfied the controller's
// condition; that race is benign.
func (r *Reporter) Success(ctx *Context) {
	r.signal(ctx, true, ctx.State.Identity.InstanceID)
}

func (r *Reporter) signal(ctx *Context, success bool, uniqueID string) {
	r.mu.Lock()
	if r.signaled {
		r.mu.Unlock()
		return
	}
	r.signaled = true
	r.mu.Unlock()

	if ctx.Clients.Controller == nil {
		return
	}
	if uniqueID == "" {
		uniqueID = "unknown"
	}

	err := ctx.Clients.Controller.Signal(ctx, success, uniqueID)
	switch {
	case err == nil:
	case errors.Is(err, cloudformation.ErrSignalRejected):
		ctx.Observer.Printf("Controller condition already satisfied, signal rejected: %v", err)
	default:
		ctx.Observer.Printf("Could not signal controller: %v", err)
	}
}

// resolveInstanceID returns the identity resolved by the identity phase, or
// asks the metadata service directly when the failure predates that phase.
func (r *Reporter) resolveInstanceID(ctx *Context) string {
	if id := ctx.State.Identity.InstanceID; id != "" {
		return id
	}
	if ctx.Clients.Metadata == nil {
		return ""
	}

	mctx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Metadata)
	defer cancel()

	id, err := ctx.Clients.Metadata.InstanceID(mctx)
	if err != nil {
		ctx.Observer.Printf("Could not resolve instance id for the health report: %v", err)
		return ""
	}
	return id
}

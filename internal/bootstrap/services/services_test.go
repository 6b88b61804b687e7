package services

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/config"
)

type fakeRuntime struct {
	failures int
	pings    int
}

func (f *fakeRuntime) Version(context.Context) (string, error) {
	return "", nil
}

func (f *fakeRuntime) Ping(context.Context) error {
	f.pings++
	if f.pings <= f.failures {
		return errors.New("cannot connect to the docker daemon")
	}
	return nil
}

type fakeSupervisor struct {
	calls     []string
	enableErr map[string]error
	startErr  map[string]error
}

func (f *fakeSupervisor) Enable(_ context.Context, unit string) error {
	f.calls = append(f.calls, "enable "+unit)
	return f.enableErr[unit]
}

func (f *fakeSupervisor) Start(_ context.Context, unit string) error {
	f.calls = append(f.calls, "start "+unit)
	return f.startErr[unit]
}

func phaseContext(runtime *fakeRuntime, supervisor *fakeSupervisor) *bootstrap.Context {
	ctx := &bootstrap.Context{
		Context:  context.Background(),
		Config:   config.DefaultConfig(),
		State:    bootstrap.NewState(),
		Fs:       afero.NewMemMapFs(),
		Observer: bootstrap.NewMemoryObserver(),
		Timeouts: config.TestTimeouts(),
	}
	ctx.Clients.Runtime = runtime
	ctx.Clients.Supervisor = supervisor
	return ctx
}

func TestRun_StartsServicesInOrder(t *testing.T) {
	t.Parallel()

	supervisor := &fakeSupervisor{}
	ctx := phaseContext(&fakeRuntime{}, supervisor)

	require.NoError(t, New().Run(ctx))
	assert.Equal(t, []string{
		"enable buildkite-agent",
		"start buildkite-agent",
		"enable lifecycled",
		"start lifecycled",
	}, supervisor.calls)
}

func TestRun_WaitsForRuntime(t *testing.T) {
	t.Parallel()

	runtime := &fakeRuntime{failures: 2}
	supervisor := &fakeSupervisor{}
	ctx := phaseContext(runtime, supervisor)

	require.NoError(t, New().Run(ctx))
	assert.Equal(t, 3, runtime.pings)
	assert.Len(t, supervisor.calls, 4)
}

func TestRun_RuntimeNeverReadyIsFatal(t *testing.T) {
	t.Parallel()

	runtime := &fakeRuntime{failures: 100}
	supervisor := &fakeSupervisor{}
	ctx := phaseContext(runtime, supervisor)

	err := New().Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container runtime never became ready")
	assert.Equal(t, ctx.Timeouts.RuntimePollAttempts, runtime.pings)
	assert.Empty(t, supervisor.calls)
}

func TestRun_EnableFailureIsFatal(t *testing.T) {
	t.Parallel()

	supervisor := &fakeSupervisor{
		enableErr: map[string]error{"buildkite-agent": errors.New("unit not found")},
	}
	ctx := phaseContext(&fakeRuntime{}, supervisor)

	err := New().Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit not found")
	assert.Equal(t, []string{"enable buildkite-agent"}, supervisor.calls)
}

func TestRun_StartFailureStopsBeforeListener(t *testing.T) {
	t.Parallel()

	supervisor := &fakeSupervisor{
		startErr: map[string]error{"buildkite-agent": errors.New("failed to start")},
	}
	ctx := phaseContext(&fakeRuntime{}, supervisor)

	err := New().Run(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"enable buildkite-agent", "start buildkite-agent"}, supervisor.calls)
}

func TestRun_DryRunSkipsActivation(t *testing.T) {
	t.Parallel()

	runtime := &fakeRuntime{}
	supervisor := &fakeSupervisor{}
	ctx := phaseContext(runtime, supervisor)
	ctx.DryRun = true

	require.NoError(t, New().Run(ctx))
	assert.Zero(t, runtime.pings)
	assert.Empty(t, supervisor.calls)
}

func TestName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "services", New().Name())
}

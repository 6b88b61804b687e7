package extensions

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/config"
	"github.com/elasticci/stackboot/internal/env"
)

type fetchCall struct {
	url, dest string
	mode      os.FileMode
}

type fakeFetcher struct {
	fs      afero.Fs
	payload []byte
	err     error
	calls   []fetchCall
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL, dest string, mode os.FileMode) error {
	f.calls = append(f.calls, fetchCall{url: rawURL, dest: dest, mode: mode})
	if f.err != nil {
		return f.err
	}
	return afero.WriteFile(f.fs, dest, f.payload, mode)
}

type runCall struct {
	path    string
	environ []string
}

type fakeRunner struct {
	err   error
	calls []runCall
}

func (f *fakeRunner) run(_ context.Context, path string, environ []string) error {
	f.calls = append(f.calls, runCall{path: path, environ: environ})
	return f.err
}

func phaseContext(fetcher *fakeFetcher, e *env.Environment) *bootstrap.Context {
	if e == nil {
		e = env.FromMap(nil)
	}
	ctx := &bootstrap.Context{
		Context:  context.Background(),
		Config:   config.DefaultConfig(),
		Env:      e,
		State:    bootstrap.NewState(),
		Fs:       afero.NewMemMapFs(),
		Observer: bootstrap.NewMemoryObserver(),
		Timeouts: config.TestTimeouts(),
	}
	fetcher.fs = ctx.Fs
	ctx.Clients.Fetcher = fetcher
	return ctx
}

func TestRun_NoopWithoutURLs(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	runner := &fakeRunner{}
	ctx := phaseContext(fetcher, nil)

	require.NoError(t, NewWithRunner(runner.run).Run(ctx))
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, runner.calls)
}

func TestRun_InstallsEnvFile(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{payload: []byte("export FOO=bar\n")}
	runner := &fakeRunner{}
	ctx := phaseContext(fetcher, nil)
	ctx.Config.EnvFileURL = "s3://my-bucket/env"

	require.NoError(t, NewWithRunner(runner.run).Run(ctx))

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, fetchCall{
		url:  "s3://my-bucket/env",
		dest: "/var/lib/buildkite-agent/env",
		mode: 0o644,
	}, fetcher.calls[0])

	data, err := afero.ReadFile(ctx.Fs, "/var/lib/buildkite-agent/env")
	require.NoError(t, err)
	assert.Equal(t, "export FOO=bar\n", string(data))
	assert.Empty(t, runner.calls)
}

func TestRun_RunsBootstrapScript(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{payload: []byte("#!/bin/bash\ntrue\n")}
	runner := &fakeRunner{}
	e := env.FromMap(map[string]string{"BUILDKITE_QUEUE": "deploy", "PATH": "/usr/bin"})
	ctx := phaseContext(fetcher, e)
	ctx.Config.BootstrapScriptURL = "https://example.com/bootstrap.sh"

	require.NoError(t, NewWithRunner(runner.run).Run(ctx))

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, fetchCall{
		url:  "https://example.com/bootstrap.sh",
		dest: "/tmp/elastic_bootstrap",
		mode: 0o755,
	}, fetcher.calls[0])

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/tmp/elastic_bootstrap", runner.calls[0].path)
	assert.Equal(t, []string{"BUILDKITE_QUEUE=deploy", "PATH=/usr/bin"}, runner.calls[0].environ)

	// The staged script is cleaned up after the run.
	exists, err := afero.Exists(ctx.Fs, "/tmp/elastic_bootstrap")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_ScriptFailureKeepsChildExitCode(t *testing.T) {
	t.Parallel()

	childErr := exec.Command("sh", "-c", "exit 7").Run()
	require.Error(t, childErr)

	fetcher := &fakeFetcher{payload: []byte("#!/bin/bash\nexit 7\n")}
	runner := &fakeRunner{err: childErr}
	ctx := phaseContext(fetcher, nil)
	ctx.Config.BootstrapScriptURL = "https://example.com/bootstrap.sh"

	err := NewWithRunner(runner.run).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrap script")
	assert.Equal(t, 7, bootstrap.ExitCode(err))

	// Cleanup happens on the failure path too.
	exists, statErr := afero.Exists(ctx.Fs, "/tmp/elastic_bootstrap")
	require.NoError(t, statErr)
	assert.False(t, exists)
}

func TestRun_EnvFileFetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: errors.New("access denied")}
	runner := &fakeRunner{}
	ctx := phaseContext(fetcher, nil)
	ctx.Config.EnvFileURL = "s3://my-bucket/env"
	ctx.Config.BootstrapScriptURL = "https://example.com/bootstrap.sh"

	err := NewWithRunner(runner.run).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch environment file")
	assert.Empty(t, runner.calls)
}

func TestRun_ScriptFetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: errors.New("no such key")}
	runner := &fakeRunner{}
	ctx := phaseContext(fetcher, nil)
	ctx.Config.BootstrapScriptURL = "s3://my-bucket/bootstrap.sh"

	err := NewWithRunner(runner.run).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch bootstrap script")
	assert.Empty(t, runner.calls)
}

func TestRun_DryRunSkipsEverything(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{payload: []byte("irrelevant")}
	runner := &fakeRunner{}
	ctx := phaseContext(fetcher, nil)
	ctx.Config.EnvFileURL = "s3://my-bucket/env"
	ctx.Config.BootstrapScriptURL = "https://example.com/bootstrap.sh"
	ctx.DryRun = true

	require.NoError(t, NewWithRunner(runner.run).Run(ctx))
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, runner.calls)
}

func TestName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "extensions", New().Name())
}

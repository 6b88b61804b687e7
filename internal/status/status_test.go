package status

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const markerPath = "/var/lib/buildkite-agent/bootstrap-status"

func TestBegin_AbsentMarker_ProceedsAndRecordsStarted(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tracker := NewTracker(fs, markerPath)

	proceed, err := tracker.Begin()
	require.NoError(t, err)
	assert.True(t, proceed)

	data, err := afero.ReadFile(fs, markerPath)
	require.NoError(t, err)
	assert.Equal(t, "started\n", string(data))
}

func TestBegin_CompletedMarker_NoOpWithoutWrites(t *testing.T) {
	t.Parallel()

	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, markerPath, []byte("completed\n"), 0o644))

	// A read-only view proves the no-op path performs zero writes.
	fs := afero.NewReadOnlyFs(base)
	tracker := NewTracker(fs, markerPath)

	proceed, err := tracker.Begin()
	require.NoError(t, err)
	assert.False(t, proceed)
}

func TestBegin_StartedMarker_FailsAndNeverResumes(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, markerPath, []byte("started\n"), 0o644))
	tracker := NewTracker(fs, markerPath)

	proceed, err := tracker.Begin()
	assert.False(t, proceed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPriorRun)

	// The marker is left as evidence, not rewritten.
	data, err := afero.ReadFile(fs, markerPath)
	require.NoError(t, err)
	assert.Equal(t, "started\n", string(data))
}

func TestBegin_UnknownMarkerContent_Fails(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"", "in-progress", "COMPLETED", "started completed"} {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, markerPath, []byte(content), 0o644))
		tracker := NewTracker(fs, markerPath)

		proceed, err := tracker.Begin()
		assert.False(t, proceed, "content %q", content)
		assert.ErrorIs(t, err, ErrPriorRun, "content %q", content)
	}
}

func TestCurrent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tracker := NewTracker(fs, markerPath)

	current, err := tracker.Current()
	require.NoError(t, err)
	assert.Equal(t, NotStarted, current)

	require.NoError(t, afero.WriteFile(fs, markerPath, []byte("completed\n"), 0o644))
	current, err = tracker.Current()
	require.NoError(t, err)
	assert.Equal(t, Completed, current)
}

func TestComplete_OverwritesStarted(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tracker := NewTracker(fs, markerPath)

	proceed, err := tracker.Begin()
	require.NoError(t, err)
	require.True(t, proceed)

	require.NoError(t, tracker.Complete())

	data, err := afero.ReadFile(fs, markerPath)
	require.NoError(t, err)
	assert.Equal(t, "completed\n", string(data))
}

func TestReset_RemovesMarker(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tracker := NewTracker(fs, markerPath)

	require.NoError(t, afero.WriteFile(fs, markerPath, []byte("started\n"), 0o644))
	require.NoError(t, tracker.Reset())

	current, err := tracker.Current()
	require.NoError(t, err)
	assert.Equal(t, NotStarted, current)

	// Resetting an absent marker is not an error.
	require.NoError(t, tracker.Reset())
}

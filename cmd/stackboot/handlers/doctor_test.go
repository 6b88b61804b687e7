package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elasticci/stackboot/internal/util/prerequisites"
)

func TestDoctor_ProvisionedHostIsHealthy(t *testing.T) {
	h := newHarness(t)
	doctorTools = func() []prerequisites.Tool {
		return []prerequisites.Tool{{Name: "sh", Required: true, Description: "shell"}}
	}
	require.NoError(t, afero.WriteFile(h.fs, h.cfg.Paths.Marker, []byte("completed\n"), 0o644))
	for _, path := range []string{h.cfg.Paths.AgentConfig, h.cfg.Paths.Overlay, h.cfg.Paths.LifecycledConfig} {
		require.NoError(t, afero.WriteFile(h.fs, path, []byte("x\n"), 0o644))
	}

	var out bytes.Buffer
	require.NoError(t, Doctor(context.Background(), DoctorOptions{JSON: true}, &out))

	var report DoctorReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.True(t, report.Healthy)
	assert.Equal(t, "completed", report.Bootstrap)
	assert.True(t, report.Runtime.Answering)
	assert.Equal(t, "24.0.7", report.Runtime.Version)
	require.Len(t, report.Tools, 1)
	assert.True(t, report.Tools[0].Found)
	require.Len(t, report.Artifacts, 3)
	for _, artifact := range report.Artifacts {
		assert.True(t, artifact.Exists, artifact.Path)
	}
}

func TestDoctor_FreshHostIsReportedNotFailed(t *testing.T) {
	newHarness(t)
	doctorTools = func() []prerequisites.Tool {
		return []prerequisites.Tool{{Name: "sh", Required: true, Description: "shell"}}
	}

	var out bytes.Buffer
	require.NoError(t, Doctor(context.Background(), DoctorOptions{}, &out))

	assert.Contains(t, out.String(), "Bootstrap: not-started")
	assert.Contains(t, out.String(), "sh")
}

func TestDoctor_MissingRequiredToolIsFatal(t *testing.T) {
	newHarness(t)
	doctorTools = func() []prerequisites.Tool {
		return []prerequisites.Tool{{Name: "nonexistent-tool-xyz123", Required: true, Description: "missing"}}
	}

	var out bytes.Buffer
	err := Doctor(context.Background(), DoctorOptions{}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required tools")
	// The report is still printed before the verdict.
	assert.Contains(t, out.String(), "nonexistent-tool-xyz123")
}

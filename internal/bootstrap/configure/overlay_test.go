package configure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elasticci/stackboot/internal/bootstrap"
)

func overlayState(region, dockerVersion string) *bootstrap.State {
	state := bootstrap.NewState()
	state.Identity.Region = region
	state.RuntimeVersion = dockerVersion
	return state
}

func TestRenderOverlay_HelperBlockIsByteStable(t *testing.T) {
	t.Parallel()

	first, err := RenderOverlay(stackConfig(), overlayState("us-east-1", "24.0.7"))
	require.NoError(t, err)

	cfg := stackConfig()
	cfg.StackName = "another'stack\"with$chars"
	cfg.SecretsBucket = "bkt"
	second, err := RenderOverlay(cfg, overlayState("eu-central-1", ""))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(first, overlayHelpers))
	require.True(t, strings.HasPrefix(second, overlayHelpers))
	assert.Equal(t, first[:len(overlayHelpers)], second[:len(overlayHelpers)])
}

func TestRenderOverlay_OneInvocationPerManagedVariable(t *testing.T) {
	t.Parallel()

	cfg := stackConfig()
	cfg.SecretsBucket = "secrets-bkt"
	cfg.SecretsBucketRegion = "us-east-1"
	cfg.ArtifactDestination = "s3://artifacts"
	cfg.ECRPolicy = "readonly"

	out, err := RenderOverlay(cfg, overlayState("us-east-1", "24.0.7"))
	require.NoError(t, err)
	block2 := strings.TrimPrefix(out, overlayHelpers)

	assert.Equal(t, 7, strings.Count(block2, "set_always "), "seven forced variables")
	assert.Equal(t, 4, strings.Count(block2, "set_unless_present "), "four deferring variables")

	assert.Contains(t, block2, `set_always         "BUILDKITE_AGENTS_PER_INSTANCE" '1'`)
	assert.Contains(t, block2, `set_always         "BUILDKITE_STACK_NAME" 'elastic-ci'`)
	assert.Contains(t, block2, `set_always         "BUILDKITE_STACK_VERSION" '6.22.1'`)
	assert.Contains(t, block2, `set_always         "BUILDKITE_DOCKER_VERSION" '24.0.7'`)
	assert.Contains(t, block2, `set_always         "BUILDKITE_PLUGINS_ENABLED" 'secrets ecr docker-login'`)
	assert.Contains(t, block2, `set_always         "AWS_REGION" 'us-east-1'`)
	assert.Contains(t, block2, `set_always         "AWS_DEFAULT_REGION" 'us-east-1'`)
	assert.Contains(t, block2, `set_unless_present "BUILDKITE_SECRETS_BUCKET" 'secrets-bkt'`)
	assert.Contains(t, block2, `set_unless_present "BUILDKITE_SECRETS_BUCKET_REGION" 'us-east-1'`)
	assert.Contains(t, block2, `set_unless_present "BUILDKITE_ARTIFACT_UPLOAD_DESTINATION" 's3://artifacts'`)
	assert.Contains(t, block2, `set_unless_present "BUILDKITE_ECR_POLICY" 'readonly'`)
}

func TestRenderOverlay_UnresolvedInputsRenderEmpty(t *testing.T) {
	t.Parallel()

	out, err := RenderOverlay(stackConfig(), overlayState("", ""))
	require.NoError(t, err)

	assert.Contains(t, out, `set_always         "BUILDKITE_DOCKER_VERSION" ''`)
	assert.Contains(t, out, `set_always         "AWS_REGION" ''`)
	assert.Contains(t, out, `set_unless_present "BUILDKITE_SECRETS_BUCKET" ''`)
}

func TestRenderOverlay_PluginTogglesChangeList(t *testing.T) {
	t.Parallel()

	cfg := stackConfig()
	cfg.ECRPluginEnabled = false

	out, err := RenderOverlay(cfg, overlayState("us-east-1", "x"))
	require.NoError(t, err)

	assert.Contains(t, out, `set_always         "BUILDKITE_PLUGINS_ENABLED" 'secrets docker-login'`)
}

func TestShellQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "'plain'"},
		{in: "", want: "''"},
		{in: "has space", want: "'has space'"},
		{in: "dollar$var", want: "'dollar$var'"},
		{in: "single'quote", want: `'single'\''quote'`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, shellQuote(tt.in))
		})
	}
}

package env

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetUnlessPresent_RespectsExistingBinding(t *testing.T) {
	t.Parallel()

	e := FromMap(map[string]string{"BUILDKITE_QUEUE": "deploy"})

	applied := e.SetUnlessPresent("BUILDKITE_QUEUE", "default")
	assert.False(t, applied)
	assert.Equal(t, "deploy", e.Get("BUILDKITE_QUEUE"))

	applied = e.SetUnlessPresent("BUILDKITE_STACK_NAME", "ci-stack")
	assert.True(t, applied)
	assert.Equal(t, "ci-stack", e.Get("BUILDKITE_STACK_NAME"))
}

func TestSet_AlwaysOverrides(t *testing.T) {
	t.Parallel()

	e := FromMap(map[string]string{"AWS_REGION": "us-east-1"})
	e.Set("AWS_REGION", "eu-west-1")
	assert.Equal(t, "eu-west-1", e.Get("AWS_REGION"))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	e := FromMap(map[string]string{"PRESENT": "yes", "EMPTY": ""})

	v, ok := e.Lookup("PRESENT")
	assert.True(t, ok)
	assert.Equal(t, "yes", v)

	// An empty value is still a binding.
	v, ok = e.Lookup("EMPTY")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = e.Lookup("ABSENT")
	assert.False(t, ok)
}

func TestBool(t *testing.T) {
	t.Parallel()

	e := FromMap(map[string]string{
		"ON":      "true",
		"OFF":     "false",
		"NUMERIC": "1",
		"JUNK":    "yes please",
	})

	assert.True(t, e.Bool("ON", false))
	assert.False(t, e.Bool("OFF", true))
	assert.True(t, e.Bool("NUMERIC", false))
	assert.True(t, e.Bool("JUNK", true))
	assert.False(t, e.Bool("ABSENT", false))
}

func TestInt(t *testing.T) {
	t.Parallel()

	e := FromMap(map[string]string{"COUNT": "3", "JUNK": "many"})

	assert.Equal(t, 3, e.Int("COUNT", 1))
	assert.Equal(t, 1, e.Int("JUNK", 1))
	assert.Equal(t, 5, e.Int("ABSENT", 5))
}

func TestEnviron_SortedSnapshot(t *testing.T) {
	t.Parallel()

	e := FromMap(map[string]string{"B": "2", "A": "1", "C": "3"})
	require.Equal(t, []string{"A=1", "B=2", "C=3"}, e.Environ())
}

func TestSystem_SeedsFromProcess(t *testing.T) {
	t.Setenv("STACKBOOT_ENV_TEST_MARKER", "present")

	e := System()
	v, ok := e.Lookup("STACKBOOT_ENV_TEST_MARKER")
	require.True(t, ok)
	assert.Equal(t, "present", v)

	// Writes stay inside the Environment.
	e.Set("STACKBOOT_ENV_TEST_MARKER", "mutated")
	assert.Equal(t, "present", os.Getenv("STACKBOOT_ENV_TEST_MARKER"))
}

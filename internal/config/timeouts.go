package config

import (
	"time"

	"github.com/elasticci/stackboot/internal/env"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Metadata            time.Duration // Timeout for instance metadata requests
	AWSCall             time.Duration // Timeout for a single AWS API call
	Fetch               time.Duration // Timeout for remote file downloads
	RuntimePollInterval time.Duration // Base wait between container runtime probes
	RuntimePollAttempts int           // Maximum container runtime probes
	FetchRetries        int           // Retries for HTTP downloads
}

// LoadTimeouts loads timeout configuration from the environment.
// If a variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - STACKBOOT_TIMEOUT_METADATA (default: 10s)
//   - STACKBOOT_TIMEOUT_AWS_CALL (default: 30s)
//   - STACKBOOT_TIMEOUT_FETCH (default: 1m)
//   - STACKBOOT_RUNTIME_POLL_INTERVAL (default: 1s)
//   - STACKBOOT_RUNTIME_POLL_ATTEMPTS (default: 5)
//   - STACKBOOT_FETCH_RETRIES (default: 2)
func LoadTimeouts(e *env.Environment) *Timeouts {
	return &Timeouts{
		Metadata:            parseDuration(e, "STACKBOOT_TIMEOUT_METADATA", 10*time.Second),
		AWSCall:             parseDuration(e, "STACKBOOT_TIMEOUT_AWS_CALL", 30*time.Second),
		Fetch:               parseDuration(e, "STACKBOOT_TIMEOUT_FETCH", time.Minute),
		RuntimePollInterval: parseDuration(e, "STACKBOOT_RUNTIME_POLL_INTERVAL", time.Second),
		RuntimePollAttempts: e.Int("STACKBOOT_RUNTIME_POLL_ATTEMPTS", 5),
		FetchRetries:        e.Int("STACKBOOT_FETCH_RETRIES", 2),
	}
}

// TestTimeouts returns timeouts tuned for unit tests: no waiting beyond a
// few milliseconds anywhere.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		Metadata:            time.Second,
		AWSCall:             time.Second,
		Fetch:               time.Second,
		RuntimePollInterval: time.Millisecond,
		RuntimePollAttempts: 3,
		FetchRetries:        1,
	}
}

// parseDuration parses a duration from an environment binding.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(e *env.Environment, key string, defaultVal time.Duration) time.Duration {
	val := e.Get(key)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

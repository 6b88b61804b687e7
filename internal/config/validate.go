package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error or warning.
type ValidationError struct {
	Field    string // Configuration field that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == "error"
}

// Validate checks the configuration a live bootstrap run depends on. Errors
// mean the host cannot be provisioned as configured; warnings are surfaced
// and the run continues.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	// --- Required for a live run ---

	if c.StackName == "" {
		errs = append(errs, ValidationError{
			Field:    "StackName",
			Message:  "stack name is required (set BUILDKITE_STACK_NAME)",
			Severity: "error",
		})
	}

	if c.SignalResource == "" {
		errs = append(errs, ValidationError{
			Field:    "SignalResource",
			Message:  "signal resource name is required (set BUILDKITE_SIGNAL_RESOURCE)",
			Severity: "error",
		})
	}

	if c.TokenParameter == "" {
		errs = append(errs, ValidationError{
			Field:    "TokenParameter",
			Message:  "agent token parameter path is required (set BUILDKITE_AGENT_TOKEN_PATH)",
			Severity: "error",
		})
	} else if !strings.HasPrefix(c.TokenParameter, "/") {
		errs = append(errs, ValidationError{
			Field:    "TokenParameter",
			Message:  "parameter path should start with '/' (e.g. '/elastic-ci/agent-token')",
			Severity: "warning",
		})
	}

	// --- Agent settings ---

	if c.AgentsPerInstance < 1 {
		errs = append(errs, ValidationError{
			Field:    "AgentsPerInstance",
			Message:  "agents per instance must be at least 1",
			Severity: "error",
		})
	}

	if c.DisconnectAfterIdleTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:    "DisconnectAfterIdleTimeout",
			Message:  "idle timeout must be non-negative",
			Severity: "error",
		})
	}

	if c.CancelGracePeriod < 0 {
		errs = append(errs, ValidationError{
			Field:    "CancelGracePeriod",
			Message:  "cancel grace period must be non-negative",
			Severity: "error",
		})
	}

	// --- Remote inputs ---

	remotes := []struct {
		field string
		value string
	}{
		{"AuthorizedUsersURL", c.AuthorizedUsersURL},
		{"EnvFileURL", c.EnvFileURL},
		{"BootstrapScriptURL", c.BootstrapScriptURL},
	}
	for _, r := range remotes {
		if r.value == "" {
			continue
		}
		u, err := url.Parse(r.value)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:    r.field,
				Message:  fmt.Sprintf("invalid URL: %v", err),
				Severity: "error",
			})
			continue
		}
		switch u.Scheme {
		case "s3", "http", "https":
		default:
			errs = append(errs, ValidationError{
				Field:    r.field,
				Message:  fmt.Sprintf("unsupported URL scheme %q, want s3, http or https", u.Scheme),
				Severity: "error",
			})
		}
	}

	// --- Feature flag paths ---

	if c.GitMirrorsEnabled && c.Paths.GitMirrors == "" {
		errs = append(errs, ValidationError{
			Field:    "Paths.GitMirrors",
			Message:  "git mirrors path is required when git mirrors are enabled",
			Severity: "error",
		})
	}

	if c.InstanceStorageEnabled && c.Paths.EphemeralRoot == "" {
		errs = append(errs, ValidationError{
			Field:    "Paths.EphemeralRoot",
			Message:  "ephemeral root is required when instance storage is enabled",
			Severity: "error",
		})
	}

	return errs
}

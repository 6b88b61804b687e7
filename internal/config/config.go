// Package config loads bootstrap configuration.
//
// Configuration is environment-first: the provisioning controller injects the
// stack parameters into the instance environment, and an optional YAML file
// can pre-seed values for local runs. Environment bindings always win over
// file values.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/elasticci/stackboot/internal/env"
)

// Paths holds every filesystem location the bootstrap touches.
type Paths struct {
	Marker           string `yaml:"marker"`
	Overlay          string `yaml:"overlay"`
	AgentConfig      string `yaml:"agentConfig"`
	LifecycledConfig string `yaml:"lifecycledConfig"`
	Hooks            string `yaml:"hooks"`
	Builds           string `yaml:"builds"`
	Plugins          string `yaml:"plugins"`
	GitMirrors       string `yaml:"gitMirrors"`
	EnvFile          string `yaml:"envFile"`
	EphemeralRoot    string `yaml:"ephemeralRoot"`
	Fstab            string `yaml:"fstab"`
	Metrics          string `yaml:"metrics"`
}

// Config holds everything the bootstrap needs to provision the host.
type Config struct {
	// Stack identity, used for signalling and the fixed agent tags.
	StackName      string `yaml:"stackName"`
	StackVersion   string `yaml:"stackVersion"`
	SignalResource string `yaml:"signalResource"`
	Region         string `yaml:"region"`

	// Agent registration.
	Queue             string `yaml:"queue"`
	TokenParameter    string `yaml:"tokenParameter"`
	AgentsPerInstance int    `yaml:"agentsPerInstance"`
	ExtraTags         string `yaml:"extraTags"`
	Experiments       string `yaml:"experiments"`
	Priority          string `yaml:"priority"`
	TracingBackend    string `yaml:"tracingBackend"`

	// Agent behaviour knobs written into the agent configuration.
	TimestampLines             bool `yaml:"timestampLines"`
	NoAnsiTimestamps           bool `yaml:"noAnsiTimestamps"`
	DisconnectAfterJob         bool `yaml:"disconnectAfterJob"`
	DisconnectAfterIdleTimeout int  `yaml:"disconnectAfterIdleTimeout"`
	CancelGracePeriod          int  `yaml:"cancelGracePeriod"`

	// Feature flags.
	GitMirrorsEnabled      bool `yaml:"gitMirrorsEnabled"`
	InstanceStorageEnabled bool `yaml:"instanceStorageEnabled"`
	SecretsPluginEnabled   bool `yaml:"secretsPluginEnabled"`
	ECRPluginEnabled       bool `yaml:"ecrPluginEnabled"`
	DockerLoginEnabled     bool `yaml:"dockerLoginEnabled"`

	// Values surfaced to jobs through the environment overlay.
	SecretsBucket       string `yaml:"secretsBucket"`
	SecretsBucketRegion string `yaml:"secretsBucketRegion"`
	ArtifactDestination string `yaml:"artifactDestination"`
	ECRPolicy           string `yaml:"ecrPolicy"`

	// Optional remote inputs.
	AuthorizedUsersURL string `yaml:"authorizedUsersURL"`
	EnvFileURL         string `yaml:"envFileURL"`
	BootstrapScriptURL string `yaml:"bootstrapScriptURL"`

	// Static credentials for the artifact/secrets bucket; the default
	// provider chain is used when unset.
	S3AccessKeyID     string `yaml:"s3AccessKeyID"`
	S3SecretAccessKey string `yaml:"s3SecretAccessKey"`

	// Service accounts and units.
	AgentUser      string `yaml:"agentUser"`
	AdminUser      string `yaml:"adminUser"`
	AgentUnit      string `yaml:"agentUnit"`
	LifecycledUnit string `yaml:"lifecycledUnit"`

	// Lifecycle listener settings.
	LifecycledHandler  string `yaml:"lifecycledHandler"`
	LifecycledLogGroup string `yaml:"lifecycledLogGroup"`

	Paths    Paths     `yaml:"paths"`
	Timeouts *Timeouts `yaml:"-"`
}

// DefaultConfig returns a Config populated with the stack defaults.
func DefaultConfig() *Config {
	return &Config{
		SignalResource:       "AgentAutoScaleGroup",
		Queue:                "default",
		AgentsPerInstance:    1,
		SecretsPluginEnabled: true,
		ECRPluginEnabled:     true,
		DockerLoginEnabled:   true,
		AgentUser:            "buildkite-agent",
		AdminUser:            "ec2-user",
		AgentUnit:            "buildkite-agent",
		LifecycledUnit:       "lifecycled",
		LifecycledHandler:    "/usr/local/bin/stop-agent-gracefully",
		Paths: Paths{
			Marker:           "/var/lib/buildkite-agent/bootstrap-status",
			Overlay:          "/var/lib/buildkite-agent/cfn-env",
			AgentConfig:      "/etc/buildkite-agent/buildkite-agent.cfg",
			LifecycledConfig: "/etc/lifecycled",
			Hooks:            "/etc/buildkite-agent/hooks",
			Builds:           "/var/lib/buildkite-agent/builds",
			Plugins:          "/var/lib/buildkite-agent/plugins",
			GitMirrors:       "/var/lib/buildkite-agent/git-mirrors",
			EnvFile:          "/var/lib/buildkite-agent/env",
			EphemeralRoot:    "/mnt/ephemeral",
			Fstab:            "/etc/fstab",
			Metrics:          "/var/lib/buildkite-agent/metrics/stackboot.prom",
		},
	}
}

// Load builds the effective configuration: defaults, then the optional YAML
// file at path (skipped when empty), then environment bindings from e.
func Load(fs afero.Fs, e *env.Environment, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(e)
	cfg.Timeouts = LoadTimeouts(e)
	return cfg, nil
}

// applyEnv overlays environment bindings onto the Config. Only bound keys
// override; unset keys leave file/default values in place.
func (c *Config) applyEnv(e *env.Environment) {
	setString := func(dst *string, key string) {
		if v, ok := e.Lookup(key); ok {
			*dst = v
		}
	}

	setString(&c.StackName, "BUILDKITE_STACK_NAME")
	setString(&c.StackVersion, "BUILDKITE_STACK_VERSION")
	setString(&c.SignalResource, "BUILDKITE_SIGNAL_RESOURCE")
	setString(&c.Region, "AWS_REGION")
	setString(&c.Queue, "BUILDKITE_QUEUE")
	setString(&c.TokenParameter, "BUILDKITE_AGENT_TOKEN_PATH")
	setString(&c.ExtraTags, "BUILDKITE_AGENT_TAGS")
	setString(&c.Experiments, "BUILDKITE_AGENT_EXPERIMENTS")
	setString(&c.Priority, "BUILDKITE_AGENT_PRIORITY")
	setString(&c.TracingBackend, "BUILDKITE_AGENT_TRACING_BACKEND")
	setString(&c.SecretsBucket, "BUILDKITE_SECRETS_BUCKET")
	setString(&c.SecretsBucketRegion, "BUILDKITE_SECRETS_BUCKET_REGION")
	setString(&c.ArtifactDestination, "BUILDKITE_ARTIFACT_UPLOAD_DESTINATION")
	setString(&c.ECRPolicy, "BUILDKITE_ECR_POLICY")
	setString(&c.AuthorizedUsersURL, "BUILDKITE_AUTHORIZED_USERS_URL")
	setString(&c.EnvFileURL, "BUILDKITE_ENV_FILE_URL")
	setString(&c.BootstrapScriptURL, "BUILDKITE_ELASTIC_BOOTSTRAP_SCRIPT")
	setString(&c.S3AccessKeyID, "BUILDKITE_S3_ACCESS_KEY_ID")
	setString(&c.S3SecretAccessKey, "BUILDKITE_S3_SECRET_ACCESS_KEY")
	setString(&c.LifecycledHandler, "LIFECYCLED_HANDLER")
	setString(&c.LifecycledLogGroup, "LIFECYCLED_CLOUDWATCH_LOG_GROUP")

	c.AgentsPerInstance = e.Int("BUILDKITE_AGENTS_PER_INSTANCE", c.AgentsPerInstance)
	c.DisconnectAfterIdleTimeout = e.Int("BUILDKITE_AGENT_DISCONNECT_AFTER_IDLE_TIMEOUT", c.DisconnectAfterIdleTimeout)
	c.CancelGracePeriod = e.Int("BUILDKITE_AGENT_CANCEL_GRACE_PERIOD", c.CancelGracePeriod)

	c.TimestampLines = e.Bool("BUILDKITE_AGENT_TIMESTAMP_LINES", c.TimestampLines)
	c.NoAnsiTimestamps = e.Bool("BUILDKITE_AGENT_NO_ANSI_TIMESTAMPS", c.NoAnsiTimestamps)
	c.DisconnectAfterJob = e.Bool("BUILDKITE_AGENT_DISCONNECT_AFTER_JOB", c.DisconnectAfterJob)
	c.GitMirrorsEnabled = e.Bool("BUILDKITE_AGENT_ENABLE_GIT_MIRRORS", c.GitMirrorsEnabled)
	c.InstanceStorageEnabled = e.Bool("BUILDKITE_ENABLE_INSTANCE_STORAGE", c.InstanceStorageEnabled)
	c.SecretsPluginEnabled = e.Bool("SECRETS_PLUGIN_ENABLED", c.SecretsPluginEnabled)
	c.ECRPluginEnabled = e.Bool("ECR_PLUGIN_ENABLED", c.ECRPluginEnabled)
	c.DockerLoginEnabled = e.Bool("DOCKER_LOGIN_PLUGIN_ENABLED", c.DockerLoginEnabled)
}

// EnabledPlugins returns the job-level plugin allowlist in its fixed order.
func (c *Config) EnabledPlugins() []string {
	var plugins []string
	if c.SecretsPluginEnabled {
		plugins = append(plugins, "secrets")
	}
	if c.ECRPluginEnabled {
		plugins = append(plugins, "ecr")
	}
	if c.DockerLoginEnabled {
		plugins = append(plugins, "docker-login")
	}
	return plugins
}

// ExtraTagList splits the user-supplied tag CSV, preserving order and
// duplicates. Blank segments are dropped.
func (c *Config) ExtraTagList() []string {
	if strings.TrimSpace(c.ExtraTags) == "" {
		return nil
	}
	parts := strings.Split(c.ExtraTags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

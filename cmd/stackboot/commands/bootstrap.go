package commands

import (
	"github.com/spf13/cobra"

	"github.com/elasticci/stackboot/cmd/stackboot/handlers"
)

// Bootstrap returns the command that provisions this host into the fleet.
//
// Optional flags:
//
//	--config, -c: Path to a configuration YAML file (default: environment only)
//	--dry-run:    Render everything into memory and skip mounts, services
//	              and stack signals
//
// Configuration comes from the baked-in defaults, the optional file, and
// BUILDKITE_* / AWS_* environment variables, in that order.
func Bootstrap() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Provision this host into the build fleet",
		Long: `Provision this host into the build fleet.

The run is idempotent per host: the first invocation does the work, any
later invocation is a no-op. A host where a prior attempt broke off is
never resumed; it is marked unhealthy and reported to the stack so the
scaling group replaces it.

Examples:
  # Normal one-shot bootstrap, as invoked from instance user data
  stackboot bootstrap

  # Validate the flow without touching the host
  stackboot bootstrap --dry-run

  # With an explicit configuration file
  stackboot bootstrap -c /etc/stackboot.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Bootstrap(cmd.Context(), handlers.BootstrapOptions{
				ConfigPath: configPath,
				DryRun:     dryRun,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render without changing the host")

	return cmd
}

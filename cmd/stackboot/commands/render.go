package commands

import (
	"github.com/spf13/cobra"

	"github.com/elasticci/stackboot/cmd/stackboot/handlers"
)

// Render returns the command that writes the generated configuration
// artifacts to a local directory for inspection.
//
// Optional flags:
//
//	--config, -c:     Path to a configuration YAML file
//	--output-dir, -o: Directory for the rendered artifacts (default: .)
//	--redact:         Replace the registration token with a placeholder
func Render() *cobra.Command {
	var (
		configPath string
		outputDir  string
		redact     bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the configuration artifacts without provisioning",
		Long: `Render the environment overlay, agent configuration and lifecycle
listener configuration to a local directory, leaving the host untouched.

Useful for debugging what a bootstrap would write. With --redact the
agent registration token is replaced by a placeholder and the secret
store is never contacted, so render works without any cloud access.

Examples:
  # Render into the current directory without secrets
  stackboot render --redact

  # Render with the real token into a scratch directory
  stackboot render -o /tmp/stackboot-preview`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Render(cmd.Context(), handlers.RenderOptions{
				ConfigPath: configPath,
				OutputDir:  outputDir,
				Redact:     redact,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for rendered artifacts")
	cmd.Flags().BoolVar(&redact, "redact", false, "Render without resolving secrets")

	return cmd
}

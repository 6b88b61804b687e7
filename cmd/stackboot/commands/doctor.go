package commands

import (
	"github.com/spf13/cobra"

	"github.com/elasticci/stackboot/cmd/stackboot/handlers"
)

// Doctor returns the command that diagnoses the host.
//
// Optional flags:
//
//	--config, -c: Path to a configuration YAML file
//	--json:       Emit the report as JSON
func Doctor() *cobra.Command {
	var (
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the host",
		Long: `Report whether this host looks like a working build host: the recorded
bootstrap state, the tools the bootstrap shells out to, the container
runtime, and the generated configuration artifacts.

The command exits non-zero only when a required tool is missing; an
unprovisioned host is reported, not failed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), handlers.DoctorOptions{
				ConfigPath: configPath,
				JSON:       jsonOutput,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")

	return cmd
}

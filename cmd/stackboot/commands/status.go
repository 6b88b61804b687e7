package commands

import (
	"github.com/spf13/cobra"

	"github.com/elasticci/stackboot/cmd/stackboot/handlers"
)

// Status returns the command that reports the bootstrap marker state.
//
// Optional flags:
//
//	--config, -c: Path to a configuration YAML file
//	--reset:      Remove the marker instead of printing it
func Status() *cobra.Command {
	var (
		configPath string
		reset      bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the bootstrap marker state",
		Long: `Print the recorded bootstrap state of this host: not-started, started,
or completed.

With --reset the marker is removed. That is an explicit operator action
making the host eligible for bootstrap again; the bootstrap itself never
clears a marker.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(handlers.StatusOptions{
				ConfigPath: configPath,
				Reset:      reset,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&reset, "reset", false, "Remove the bootstrap marker")

	return cmd
}

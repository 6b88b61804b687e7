// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the stackboot CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stackboot",
		Short: "One-shot bootstrap for elastic build fleet hosts",
		Long: `stackboot provisions a freshly launched instance into an auto-scaled
build fleet: it resolves the instance identity, renders the agent
configuration, prepares storage, and starts the services, reporting the
outcome to the stack that launched it.

It runs exactly once per host. A completed host is left alone; a host
where a prior attempt broke off is refused and reported for replacement.`,
	}

	cmd.AddCommand(Bootstrap())
	cmd.AddCommand(Render())
	cmd.AddCommand(Status())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())

	return cmd
}

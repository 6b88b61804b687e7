// Package main is the entry point for the stackboot CLI.
//
// stackboot turns a freshly launched compute instance into a working member
// of an auto-scaled build fleet. It is designed to run exactly once per
// host, from instance user data, and to report its outcome to the stack
// that launched the instance.
//
// Commands: bootstrap, render, status, doctor, version.
//
// For detailed usage information, run:
//
//	stackboot --help
package main

import (
	"fmt"
	"os"

	"github.com/elasticci/stackboot/cmd/stackboot/commands"
	"github.com/elasticci/stackboot/cmd/stackboot/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(handlers.ExitStatus(err))
	}
}

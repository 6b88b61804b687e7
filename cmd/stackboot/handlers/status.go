package handlers

import (
	"fmt"
	"io"
)

// StatusOptions carries the status command's flag values.
type StatusOptions struct {
	ConfigPath string
	Reset      bool
}

// Status prints the recorded bootstrap state. With Reset it clears the
// marker instead, which is the only sanctioned way to make a host where a
// prior run broke off eligible for bootstrap again.
func Status(opts StatusOptions, out io.Writer) error {
	fs := newFs()
	e := systemEnv()

	cfg, err := loadConfig(fs, e, opts.ConfigPath)
	if err != nil {
		return err
	}

	tracker := newTracker(fs, cfg.Paths.Marker)
	if opts.Reset {
		if err := tracker.Reset(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Bootstrap marker %s cleared\n", tracker.Path())
		return nil
	}

	current, err := tracker.Current()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, current)
	return nil
}

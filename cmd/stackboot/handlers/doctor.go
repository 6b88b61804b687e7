package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/elasticci/stackboot/internal/status"
	"github.com/elasticci/stackboot/internal/util/prerequisites"
)

// DoctorOptions carries the doctor command's flag values.
type DoctorOptions struct {
	ConfigPath string
	JSON       bool
}

// doctorTools lists the binaries the doctor checks for.
var doctorTools = prerequisites.HostTools

// DoctorReport is the machine-readable doctor output.
type DoctorReport struct {
	Bootstrap string           `json:"bootstrap"`
	Runtime   RuntimeHealth    `json:"runtime"`
	Tools     []ToolHealth     `json:"tools"`
	Artifacts []ArtifactHealth `json:"artifacts"`
	Healthy   bool             `json:"healthy"`
}

// ToolHealth reports one host binary check.
type ToolHealth struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Version  string `json:"version,omitempty"`
}

// RuntimeHealth reports the container runtime probe.
type RuntimeHealth struct {
	Answering bool   `json:"answering"`
	Version   string `json:"version,omitempty"`
}

// ArtifactHealth reports one generated configuration artifact.
type ArtifactHealth struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// Doctor reports whether this host looks like a working build host: the
// recorded bootstrap state, the tools the bootstrap shells out to, the
// container runtime, and the generated artifacts. Missing required tools
// are the only fatal finding; everything else is informational.
func Doctor(ctx context.Context, opts DoctorOptions, out io.Writer) error {
	fs := newFs()
	e := systemEnv()

	cfg, err := loadConfig(fs, e, opts.ConfigPath)
	if err != nil {
		return err
	}

	tracker := newTracker(fs, cfg.Paths.Marker)
	current, err := tracker.Current()
	if err != nil {
		return err
	}

	report := DoctorReport{Bootstrap: string(current)}

	checks := prerequisites.Check(doctorTools())
	for _, r := range checks.Results {
		report.Tools = append(report.Tools, ToolHealth{
			Name:     r.Tool.Name,
			Required: r.Tool.Required,
			Found:    r.Found,
			Version:  r.Version,
		})
	}

	runtime := newRuntime()
	if version, verr := runtime.Version(ctx); verr == nil {
		report.Runtime.Version = version
	}
	report.Runtime.Answering = runtime.Ping(ctx) == nil

	for _, path := range []string{cfg.Paths.AgentConfig, cfg.Paths.Overlay, cfg.Paths.LifecycledConfig} {
		exists, statErr := afero.Exists(fs, path)
		if statErr != nil {
			return fmt.Errorf("stat %s: %w", path, statErr)
		}
		report.Artifacts = append(report.Artifacts, ArtifactHealth{Path: path, Exists: exists})
	}

	report.Healthy = current == status.Completed && report.Runtime.Answering && !checks.HasErrors()

	if opts.JSON {
		data, merr := json.MarshalIndent(report, "", "  ")
		if merr != nil {
			return fmt.Errorf("marshal doctor report: %w", merr)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printDoctorReport(out, &report)
	}

	return checks.Error()
}

func printDoctorReport(out io.Writer, report *DoctorReport) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Bootstrap: %s\n", report.Bootstrap)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Tools")
	fmt.Fprintln(out, "  "+strings.Repeat("─", 35))
	for _, tool := range report.Tools {
		extra := tool.Version
		if !tool.Found && !tool.Required {
			extra = "optional"
		}
		printRow(out, tool.Name, tool.Found, extra)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Runtime")
	fmt.Fprintln(out, "  "+strings.Repeat("─", 35))
	printRow(out, "Docker daemon", report.Runtime.Answering, report.Runtime.Version)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Artifacts")
	fmt.Fprintln(out, "  "+strings.Repeat("─", 35))
	for _, artifact := range report.Artifacts {
		printRow(out, artifact.Path, artifact.Exists, "")
	}
	fmt.Fprintln(out)
}

func printRow(out io.Writer, name string, ok bool, extra string) {
	indicator := "✅" // green check
	if !ok {
		indicator = "❌" // red X
	}

	if extra != "" {
		fmt.Fprintf(out, "  %s  %-40s %s\n", indicator, name, extra)
	} else {
		fmt.Fprintf(out, "  %s  %s\n", indicator, name)
	}
}

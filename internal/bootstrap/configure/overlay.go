package configure

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/elasticci/stackboot/internal/bootstrap"
	"github.com/elasticci/stackboot/internal/config"
)

// overlayHelpers is block one of the environment overlay. It is emitted
// byte-for-byte with no interpolation so dependent processes always source
// the same inspectable prelude, independent of per-run values.
const overlayHelpers = `#!/bin/bash
# Environment overlay for elastic stack build hosts.
# Sourced by the agent environment hook before every job.

set_unless_present() {
  local target="$1"
  local value="$2"

  if [[ -v "$target" ]]; then
    echo "^^^ +++"
    echo "Environment variable $target is already set, not overriding it" >&2
  else
    declare -gx "$target=$value"
  fi
}

set_always() {
  local target="$1"
  local value="$2"

  declare -gx "$target=$value"
}
`

// overlayEntry is one helper invocation in block two.
type overlayEntry struct {
	Helper string
	Name   string
	Value  string
}

var overlayTemplate = template.Must(template.New("overlay").Funcs(template.FuncMap{
	"quote": shellQuote,
}).Parse(`
{{range .}}{{printf "%-18s" .Helper}} "{{.Name}}" {{quote .Value}}
{{end}}`))

// RenderOverlay produces the environment overlay script: the verbatim helper
// block followed by one interpolated helper invocation per managed variable.
// Unresolved inputs render as empty values; rendering is permissive by
// contract.
func RenderOverlay(cfg *config.Config, state *bootstrap.State) (string, error) {
	entries := []overlayEntry{
		{Helper: "set_always", Name: "BUILDKITE_AGENTS_PER_INSTANCE", Value: strconv.Itoa(cfg.AgentsPerInstance)},
		{Helper: "set_always", Name: "BUILDKITE_STACK_NAME", Value: cfg.StackName},
		{Helper: "set_always", Name: "BUILDKITE_STACK_VERSION", Value: cfg.StackVersion},
		{Helper: "set_always", Name: "BUILDKITE_DOCKER_VERSION", Value: state.RuntimeVersion},
		{Helper: "set_always", Name: "BUILDKITE_PLUGINS_ENABLED", Value: strings.Join(cfg.EnabledPlugins(), " ")},
		{Helper: "set_always", Name: "AWS_REGION", Value: state.Identity.Region},
		{Helper: "set_always", Name: "AWS_DEFAULT_REGION", Value: state.Identity.Region},
		{Helper: "set_unless_present", Name: "BUILDKITE_SECRETS_BUCKET", Value: cfg.SecretsBucket},
		{Helper: "set_unless_present", Name: "BUILDKITE_SECRETS_BUCKET_REGION", Value: cfg.SecretsBucketRegion},
		{Helper: "set_unless_present", Name: "BUILDKITE_ARTIFACT_UPLOAD_DESTINATION", Value: cfg.ArtifactDestination},
		{Helper: "set_unless_present", Name: "BUILDKITE_ECR_POLICY", Value: cfg.ECRPolicy},
	}

	var b strings.Builder
	b.WriteString(overlayHelpers)
	if err := overlayTemplate.Execute(&b, entries); err != nil {
		return "", fmt.Errorf("render overlay invocations: %w", err)
	}
	return b.String(), nil
}

// shellQuote renders v as a single shell word. Single quotes survive every
// metacharacter except the quote itself.
func shellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

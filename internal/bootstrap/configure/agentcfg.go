package configure

import (
	"fmt"
	"strings"

	"github.com/elasticci/stackboot/internal/config"
)

// RenderAgentConfig produces the agent configuration file: a flat key=value
// document with a fixed key set and order. It is fully rewritten every run,
// never merged. The token is the only secret it carries; callers must write
// the result with owner-only permissions.
func RenderAgentConfig(cfg *config.Config, token string, tags []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "name=%q\n", "%hostname-%spawn")
	fmt.Fprintf(&b, "token=%q\n", token)
	fmt.Fprintf(&b, "tags=%q\n", strings.Join(tags, ","))
	b.WriteString("tags-from-ec2-meta-data=true\n")
	fmt.Fprintf(&b, "no-ansi-timestamps=%t\n", cfg.NoAnsiTimestamps)
	fmt.Fprintf(&b, "timestamp-lines=%t\n", cfg.TimestampLines)
	fmt.Fprintf(&b, "hooks-path=%s\n", cfg.Paths.Hooks)
	fmt.Fprintf(&b, "build-path=%s\n", cfg.Paths.Builds)
	fmt.Fprintf(&b, "plugins-path=%s\n", cfg.Paths.Plugins)
	if cfg.GitMirrorsEnabled {
		fmt.Fprintf(&b, "git-mirrors-path=%s\n", cfg.Paths.GitMirrors)
	}
	fmt.Fprintf(&b, "experiment=%q\n", cfg.Experiments)
	fmt.Fprintf(&b, "priority=%q\n", cfg.Priority)
	fmt.Fprintf(&b, "spawn=%d\n", cfg.AgentsPerInstance)
	b.WriteString("no-color=true\n")
	fmt.Fprintf(&b, "disconnect-after-idle-timeout=%d\n", cfg.DisconnectAfterIdleTimeout)
	fmt.Fprintf(&b, "disconnect-after-job=%t\n", cfg.DisconnectAfterJob)
	fmt.Fprintf(&b, "tracing-backend=%q\n", cfg.TracingBackend)
	fmt.Fprintf(&b, "cancel-grace-period=%d\n", cfg.CancelGracePeriod)

	return b.String()
}

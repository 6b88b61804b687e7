package configure

import "github.com/elasticci/stackboot/internal/config"

// AgentTags composes the ordered agent metadata tags: four fixed
// identity-derived entries first, then the user CSV in its original order.
// Duplicates are kept; the agent treats repeated keys as accumulating.
func AgentTags(cfg *config.Config, runtimeVersion string) []string {
	tags := []string{
		"queue=" + cfg.Queue,
		"docker=" + runtimeVersion,
		"stack=" + cfg.StackName,
		"buildkite-aws-stack=" + cfg.StackVersion,
	}
	return append(tags, cfg.ExtraTagList()...)
}

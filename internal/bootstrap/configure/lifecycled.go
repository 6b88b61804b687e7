package configure

import "fmt"

// RenderLifecycledConfig produces the lifecycle listener's environment file:
// a fixed three-key document naming the deployment region, the termination
// handler, and the log group the listener ships its output to.
func RenderLifecycledConfig(region, handler, logGroup string) string {
	return fmt.Sprintf("AWS_REGION=%s\nLIFECYCLED_HANDLER=%s\nLIFECYCLED_CLOUDWATCH_LOG_GROUP=%s\n",
		region, handler, logGroup)
}

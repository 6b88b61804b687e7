// Package autoscaling marks instance health with the fleet's scaling group.
package autoscaling

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"

	"github.com/elasticci/stackboot/internal/platform/awsconfig"
)

// API is the subset of the auto scaling client used here.
type API interface {
	SetInstanceHealth(ctx context.Context, params *autoscaling.SetInstanceHealthInput, optFns ...func(*autoscaling.Options)) (*autoscaling.SetInstanceHealthOutput, error)
}

// HealthSetter marks instances unhealthy so the group replaces them instead
// of routing work to a half-provisioned host.
type HealthSetter interface {
	SetUnhealthy(ctx context.Context, instanceID string) error
}

// Client wraps the auto scaling API.
type Client struct {
	api API
}

// NewClient creates an auto scaling client for the given region.
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := awsconfig.Load(ctx, region)
	if err != nil {
		return nil, err
	}
	return &Client{api: autoscaling.NewFromConfig(cfg)}, nil
}

// NewClientFromAPI wraps an existing API implementation, used by tests.
func NewClientFromAPI(api API) *Client {
	return &Client{api: api}
}

// SetUnhealthy implements HealthSetter. The grace period is not respected:
// a failed bootstrap is conclusive regardless of how young the instance is.
func (c *Client) SetUnhealthy(ctx context.Context, instanceID string) error {
	_, err := c.api.SetInstanceHealth(ctx, &autoscaling.SetInstanceHealthInput{
		HealthStatus:             aws.String("Unhealthy"),
		InstanceId:               aws.String(instanceID),
		ShouldRespectGracePeriod: aws.Bool(false),
	})
	if err != nil {
		return fmt.Errorf("failed to mark instance %s unhealthy: %w", instanceID, err)
	}
	return nil
}

// Package cloudformation signals bootstrap outcomes to the provisioning
// controller.
package cloudformation

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"

	"github.com/elasticci/stackboot/internal/platform/awsconfig"
)

// ErrSignalRejected indicates the controller refused the signal, typically
// because the stack's wait condition was already satisfied or the stack has
// left its waiting state. Callers treat this as a benign race on success.
var ErrSignalRejected = errors.New("signal rejected by stack controller")

// API is the subset of the stack controller client used here.
type API interface {
	SignalResource(ctx context.Context, params *cloudformation.SignalResourceInput, optFns ...func(*cloudformation.Options)) (*cloudformation.SignalResourceOutput, error)
}

// Signaler reports a resource outcome for the stack's creation policy.
type Signaler interface {
	// Signal sends exactly one success or failure signal attributed to
	// uniqueID, normally the instance identifier.
	Signal(ctx context.Context, success bool, uniqueID string) error
}

// Client wraps the stack controller API for one stack resource.
type Client struct {
	api       API
	stackName string
	resource  string
}

// NewClient creates a signal client for the named stack resource.
func NewClient(ctx context.Context, region, stackName, resource string) (*Client, error) {
	cfg, err := awsconfig.Load(ctx, region)
	if err != nil {
		return nil, err
	}
	return &Client{api: cloudformation.NewFromConfig(cfg), stackName: stackName, resource: resource}, nil
}

// NewClientFromAPI wraps an existing API implementation, used by tests.
func NewClientFromAPI(api API, stackName, resource string) *Client {
	return &Client{api: api, stackName: stackName, resource: resource}
}

// Signal implements Signaler.
func (c *Client) Signal(ctx context.Context, success bool, uniqueID string) error {
	status := types.ResourceSignalStatusFailure
	if success {
		status = types.ResourceSignalStatusSuccess
	}

	_, err := c.api.SignalResource(ctx, &cloudformation.SignalResourceInput{
		StackName:         aws.String(c.stackName),
		LogicalResourceId: aws.String(c.resource),
		UniqueId:          aws.String(uniqueID),
		Status:            status,
	})
	if err != nil {
		if isSignalRejected(err) {
			return fmt.Errorf("%w: %s/%s", ErrSignalRejected, c.stackName, c.resource)
		}
		return fmt.Errorf("failed to signal %s/%s: %w", c.stackName, c.resource, err)
	}
	return nil
}

// isSignalRejected checks for the controller's validation rejection, which
// is how it answers signals that arrive after the wait condition settled.
func isSignalRejected(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError"
	}
	return false
}

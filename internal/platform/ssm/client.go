// Package ssm resolves secrets from the parameter store.
package ssm

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/elasticci/stackboot/internal/platform/awsconfig"
)

// API is the subset of the parameter store client used here.
type API interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterReader reads parameter values, decrypting secure strings on
// request. Resolved values are secrets; callers must keep them out of logs
// and rendered output other than their single intended sink.
type ParameterReader interface {
	Parameter(ctx context.Context, name string, decrypt bool) (string, error)
}

// Client wraps the parameter store API.
type Client struct {
	api API
}

// NewClient creates a parameter store client for the given region.
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := awsconfig.Load(ctx, region)
	if err != nil {
		return nil, err
	}
	return &Client{api: ssm.NewFromConfig(cfg)}, nil
}

// NewClientFromAPI wraps an existing API implementation, used by tests.
func NewClientFromAPI(api API) *Client {
	return &Client{api: api}
}

// Parameter implements ParameterReader. Error messages carry the parameter
// name, never its value.
func (c *Client) Parameter(ctx context.Context, name string, decrypt bool) (string, error) {
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}

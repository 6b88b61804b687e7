// Package metadata queries the instance metadata service for the identity of
// the running host.
//
// Queries use the session-token flow: a short-lived token is acquired first
// and presented on every read. The token lives only in memory and is never
// logged or persisted.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://169.254.169.254"

	tokenPath      = "/latest/api/token"
	instanceIDPath = "/latest/meta-data/instance-id"
	regionPath     = "/latest/meta-data/placement/region"

	tokenTTLHeader = "X-aws-ec2-metadata-token-ttl-seconds"
	tokenHeader    = "X-aws-ec2-metadata-token"

	// DefaultTokenTTL bounds how long an issued session token stays valid.
	DefaultTokenTTL = 60 * time.Second
)

// Resolver resolves the identity of the running instance.
type Resolver interface {
	// InstanceID returns the provider-assigned instance identifier.
	InstanceID(ctx context.Context) (string, error)
	// Region returns the deployment region of the instance.
	Region(ctx context.Context) (string, error)
}

// Client is a session-token metadata client.
type Client struct {
	baseURL  string
	http     *http.Client
	tokenTTL time.Duration
}

// Option is a functional option for the metadata client.
type Option func(*Client)

// WithBaseURL overrides the metadata endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithTokenTTL overrides the session token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.tokenTTL = ttl
	}
}

// NewClient creates a metadata client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		http:     &http.Client{Timeout: 5 * time.Second},
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InstanceID implements Resolver.
func (c *Client) InstanceID(ctx context.Context) (string, error) {
	return c.get(ctx, instanceIDPath)
}

// Region implements Resolver.
func (c *Client) Region(ctx context.Context) (string, error) {
	return c.get(ctx, regionPath)
}

// token acquires a fresh session token. The returned value must not appear
// in any log output or error message.
func (c *Client) token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set(tokenTTLHeader, strconv.Itoa(int(c.tokenTTL.Seconds())))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request metadata token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata token request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read metadata token: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) get(ctx context.Context, path string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set(tokenHeader, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request metadata %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata %s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read metadata %s: %w", path, err)
	}
	return strings.TrimSpace(string(body)), nil
}

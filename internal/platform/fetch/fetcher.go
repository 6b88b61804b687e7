// Package fetch downloads remote bootstrap inputs to the local filesystem.
//
// Two URL schemes are supported: s3:// for the stack's managed buckets and
// http(s):// for everything else. Downloads land atomically (temp file and
// rename) so a crashed run never leaves a half-written input behind.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"

	"github.com/elasticci/stackboot/internal/platform/awsconfig"
	"github.com/elasticci/stackboot/internal/util/retry"
)

// S3API is the subset of the bucket client used here.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Factory builds the bucket client on first use, so runs without any
// s3:// input never touch the bucket API.
type S3Factory func(ctx context.Context) (S3API, error)

// Fetcher downloads a URL to a destination path.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, dest string, mode os.FileMode) error
}

// Client fetches s3:// and http(s):// URLs through an injected filesystem.
type Client struct {
	fs         afero.Fs
	http       *http.Client
	s3         S3API
	newS3      S3Factory
	retries    int
	retryDelay time.Duration
}

// Option is a functional option for the fetch client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithS3Factory overrides how the bucket client is built.
func WithS3Factory(f S3Factory) Option {
	return func(c *Client) {
		c.newS3 = f
	}
}

// WithRetries sets how many times transient HTTP failures are retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithRetryDelay sets the delay before the first HTTP retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// NewClient creates a fetch client writing through fs.
func NewClient(fs afero.Fs, opts ...Option) *Client {
	c := &Client{
		fs:         fs,
		http:       &http.Client{Timeout: time.Minute},
		newS3:      DefaultS3Factory("", "", ""),
		retries:    2,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultS3Factory builds the bucket client from the ambient credential
// chain, or from static keys when the stack passes dedicated bucket
// credentials.
func DefaultS3Factory(region, accessKey, secretKey string) S3Factory {
	return func(ctx context.Context) (S3API, error) {
		var (
			cfg aws.Config
			err error
		)
		if accessKey != "" {
			cfg, err = awsconfig.LoadWithStaticCredentials(ctx, region, accessKey, secretKey)
		} else {
			cfg, err = awsconfig.Load(ctx, region)
		}
		if err != nil {
			return nil, err
		}
		return s3.NewFromConfig(cfg), nil
	}
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, rawURL, dest string, mode os.FileMode) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %s: %w", rawURL, err)
	}

	switch u.Scheme {
	case "s3":
		return c.fetchS3(ctx, u, dest, mode)
	case "http", "https":
		return c.fetchHTTP(ctx, rawURL, dest, mode)
	default:
		return fmt.Errorf("unsupported url scheme %q in %s", u.Scheme, rawURL)
	}
}

func (c *Client) fetchS3(ctx context.Context, u *url.URL, dest string, mode os.FileMode) error {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return fmt.Errorf("malformed s3 url %s, want s3://bucket/key", u.String())
	}

	if c.s3 == nil {
		api, err := c.newS3(ctx)
		if err != nil {
			return fmt.Errorf("build bucket client: %w", err)
		}
		c.s3 = api
	}

	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get object s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("failed to read object s3://%s/%s: %w", bucket, key, err)
	}
	return c.write(dest, data, mode)
}

func (c *Client) fetchHTTP(ctx context.Context, rawURL, dest string, mode os.FileMode) error {
	var data []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return retry.Fatal(fmt.Errorf("build request for %s: %w", rawURL, err))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500:
			return fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
		default:
			// Client errors will not improve with retries.
			return retry.Fatal(fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode))
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s: %w", rawURL, err)
		}
		return nil
	}

	if err := retry.WithExponentialBackoff(ctx, op,
		retry.WithMaxRetries(c.retries),
		retry.WithInitialDelay(c.retryDelay)); err != nil {
		return err
	}
	return c.write(dest, data, mode)
}

func (c *Client) write(dest string, data []byte, mode os.FileMode) error {
	if dir := filepath.Dir(dest); dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tmp := dest + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := c.fs.Rename(tmp, dest); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp, dest, err)
	}
	return nil
}

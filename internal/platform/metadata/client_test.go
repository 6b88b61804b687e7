package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMetadata serves the token and metadata endpoints the way the real
// service does: reads without a valid session token are rejected.
func fakeMetadata(t *testing.T, values map[string]string) (*httptest.Server, *struct {
	TokenRequests int
	LastTTL       string
}) {
	t.Helper()

	const issued = "test-session-token"
	state := &struct {
		TokenRequests int
		LastTTL       string
	}{}

	mux := http.NewServeMux()
	mux.HandleFunc("/latest/api/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		state.TokenRequests++
		state.LastTTL = r.Header.Get("X-aws-ec2-metadata-token-ttl-seconds")
		if state.LastTTL == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(issued))
	})
	mux.HandleFunc("/latest/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-aws-ec2-metadata-token") != issued {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		v, ok := values[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(v + "\n"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, state
}

func TestInstanceID_UsesSessionToken(t *testing.T) {
	t.Parallel()

	srv, state := fakeMetadata(t, map[string]string{
		"/latest/meta-data/instance-id": "i-0123456789abcdef0",
	})

	client := NewClient(WithBaseURL(srv.URL))
	id, err := client.InstanceID(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "i-0123456789abcdef0", id)
	assert.Equal(t, 1, state.TokenRequests)
	assert.Equal(t, "60", state.LastTTL, "default token TTL should be 60 seconds")
}

func TestRegion(t *testing.T) {
	t.Parallel()

	srv, _ := fakeMetadata(t, map[string]string{
		"/latest/meta-data/placement/region": "us-east-1",
	})

	client := NewClient(WithBaseURL(srv.URL))
	region, err := client.Region(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", region)
}

func TestInstanceID_TokenTTLOption(t *testing.T) {
	t.Parallel()

	srv, state := fakeMetadata(t, map[string]string{
		"/latest/meta-data/instance-id": "i-0aaa",
	})

	client := NewClient(WithBaseURL(srv.URL), WithTokenTTL(120*time.Second))
	_, err := client.InstanceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "120", state.LastTTL)
}

func TestInstanceID_ServiceUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.InstanceID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestInstanceID_ErrorNeverLeaksToken(t *testing.T) {
	t.Parallel()

	// Token issued, then the metadata read fails; the error must not carry
	// the token value.
	const issued = "super-secret-token"
	mux := http.NewServeMux()
	mux.HandleFunc("/latest/api/token", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(issued))
	})
	mux.HandleFunc("/latest/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.InstanceID(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), issued)
}

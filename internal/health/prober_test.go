package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeHealthyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Kai-HealthCheck/1.0", r.UserAgent())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ok, err := NewProber().Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProbeTreatsServerErrorAsNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ok, err := NewProber().Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProbeAcceptsClientErrorStatus(t *testing.T) {
	// A 4xx means the service is up and answering, just not at this path.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ok, err := NewProber().Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProbeDoesNotFollowRedirects(t *testing.T) {
	var redirected atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/away" {
			redirected.Store(true)
			return
		}
		http.Redirect(w, r, "/away", http.StatusFound)
	}))
	defer srv.Close()

	ok, err := NewProber().Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, redirected.Load())
}

func TestProbeUnreachableEndpoint(t *testing.T) {
	prober := NewProber(WithTimeout(500 * time.Millisecond))

	ok, err := prober.Probe(context.Background(), "http://127.0.0.1:1/health")
	require.Error(t, err)
	assert.False(t, ok)
}

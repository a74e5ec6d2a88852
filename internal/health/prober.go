// Package health polls service readiness endpoints with bounded retries.
// A probe that never succeeds is a warning for the caller, not an abort:
// a slow service is indistinguishable from a broken one at this layer.
package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// DefaultProbeTimeout is the per-request timeout for HTTP probes.
const DefaultProbeTimeout = 5 * time.Second

// Prober sends readiness probes.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures the Prober.
type Option func(*Prober)

// WithTimeout sets the per-probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		p.client = client
	}
}

// NewProber creates a new HTTP prober.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		timeout: DefaultProbeTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		p.client = &http.Client{
			Timeout: p.timeout,
			Transport: &http.Transport{
				// Readiness only checks reachability; local services may
				// use self-signed certificates.
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, // #nosec G402
				},
				DisableKeepAlives: true,
			},
			// Don't follow redirects - we want to see the actual response
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	return p
}

// Probe sends a GET and reports whether the endpoint answered with a
// non-5xx status.
func (p *Prober) Probe(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Kai-HealthCheck/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError, nil
}

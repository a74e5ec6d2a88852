package health

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ProbeFunc reports whether one readiness check succeeded.
type ProbeFunc func(ctx context.Context) (bool, error)

// WaitResult is the outcome of a bounded readiness wait.
type WaitResult struct {
	Ready    bool
	TimedOut bool
	Attempts int
	Elapsed  time.Duration
}

// Waiter retries a probe at a fixed interval until it succeeds or the
// ceiling elapses. Never blocks longer than Ceiling plus one Interval.
type Waiter struct {
	Interval time.Duration
	Ceiling  time.Duration
}

// Wait polls the probe until success, ceiling, or context cancellation.
func (w Waiter) Wait(ctx context.Context, name string, probe ProbeFunc) WaitResult {
	start := time.Now()
	deadline := start.Add(w.Ceiling)
	result := WaitResult{}

	// Probes run under the overall deadline so a hanging endpoint cannot
	// block past the ceiling.
	probeCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		result.Attempts++
		ok, err := probe(probeCtx)
		result.Elapsed = time.Since(start)
		if err != nil {
			log.Debug().Err(err).Str("service", name).Int("attempt", result.Attempts).Msg("Probe failed")
		}
		if ok {
			result.Ready = true
			log.Info().Str("service", name).Dur("elapsed", result.Elapsed).Msg("Service ready")
			return result
		}

		if time.Now().After(deadline) || ctx.Err() != nil {
			result.TimedOut = true
			log.Warn().Str("service", name).Dur("elapsed", result.Elapsed).Msg("Readiness wait timed out, continuing")
			return result
		}

		select {
		case <-time.After(w.Interval):
		case <-ctx.Done():
			result.TimedOut = true
			result.Elapsed = time.Since(start)
			return result
		}
	}
}

// WaitForURL polls an HTTP endpoint with the given prober.
func (w Waiter) WaitForURL(ctx context.Context, prober *Prober, name, url string) WaitResult {
	return w.Wait(ctx, name, func(ctx context.Context) (bool, error) {
		return prober.Probe(ctx, url)
	})
}

// Package command runs the external tools the platform still drives as
// processes (git, pnpm) and checks invocation prerequisites.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrMissingPrerequisite indicates a required CLI tool is absent or the
// container daemon is unreachable. Always fatal: the invocation aborts
// before any state is touched.
var ErrMissingPrerequisite = errors.New("missing prerequisite")

// DefaultTimeout bounds a single external command invocation.
const DefaultTimeout = 10 * time.Minute

// RunResult captures one external command invocation. Consumed immediately
// by the calling step, never persisted.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes external processes synchronously.
type Runner struct {
	Timeout time.Duration
	Dir     string
}

// NewRunner creates a runner with the default timeout.
func NewRunner() *Runner {
	return &Runner{Timeout: DefaultTimeout}
}

// Run executes the command and captures its output. A non-zero exit code
// is reported in the result, not as an error; errors are reserved for
// failures to run at all (missing binary, timeout).
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*RunResult, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		// A killed process also surfaces as an ExitError, so the context
		// must be consulted first or a timeout reads as a non-zero exit.
		if ctx.Err() != nil {
			return result, fmt.Errorf("command %s timed out after %s: %w", name, timeout, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			log.Debug().
				Str("command", name).
				Int("exit_code", result.ExitCode).
				Dur("duration", result.Duration).
				Msg("Command exited non-zero")
			return result, nil
		}
		return result, fmt.Errorf("failed to run %s: %w", name, err)
	}

	log.Debug().Str("command", name).Dur("duration", result.Duration).Msg("Command completed")
	return result, nil
}

// RequireTools verifies every named tool is on PATH.
func RequireTools(names ...string) error {
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("%w: %s not found in PATH", ErrMissingPrerequisite, name)
		}
	}
	return nil
}

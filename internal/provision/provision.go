// Package provision idempotently ensures the Docker network and host
// directories the platform depends on. Already-present resources are
// success, never an error; partial failures leave state as-is because
// re-running is always safe.
package provision

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/cotandem/kai/pkg/runtime"
)

// EnsureNetwork creates the named bridge network unless it already exists.
func EnsureNetwork(ctx context.Context, rt runtime.Runtime, name string) error {
	exists, err := rt.NetworkExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check network %s: %w", name, err)
	}
	if exists {
		log.Debug().Str("network", name).Msg("Network already exists")
		return nil
	}

	if err := rt.CreateNetwork(ctx, name, map[string]string{"kai.managed": "true"}); err != nil {
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}

	return nil
}

// EnsureDirectories creates the given host directories, tolerating ones
// that already exist.
func EnsureDirectories(dirs []string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

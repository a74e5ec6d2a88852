// Package env persists the backend environment file consumed by the
// services this tooling launches. The variables are pass-through: written
// at setup, read back at start, never interpreted here.
package env

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Backend holds the variables persisted for the backend service.
type Backend struct {
	Port          int
	DockerNetwork string
	ImageName     string
	KaiBaseRoot   string
}

// WriteBackend writes the env file, creating its directory if needed.
func WriteBackend(path string, b Backend) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create env file directory: %w", err)
	}

	vars := map[string]string{
		"PORT":           fmt.Sprintf("%d", b.Port),
		"DOCKER_NETWORK": b.DockerNetwork,
		"IMAGE_NAME":     b.ImageName,
		"KAI_BASE_ROOT":  b.KaiBaseRoot,
	}

	if err := godotenv.Write(vars, path); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("Backend env file written")
	return nil
}

// ReadBackend loads the env file as a plain map. A missing file is not an
// error; the caller falls back to configuration defaults.
func ReadBackend(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	return vars, nil
}

package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/pkg/runtime"
)

var (
	// ErrImageUnavailable indicates no acquisition step could produce a
	// usable local image. Fatal for start: services cannot run without
	// their image.
	ErrImageUnavailable = errors.New("image unavailable")

	// ErrAuthRequired indicates the registry rejected an unauthenticated
	// pull. Recoverable by prompting for credentials in interactive flows.
	ErrAuthRequired = errors.New("registry authentication required")
)

// CredentialFunc supplies registry credentials when an unauthenticated pull
// is rejected. A nil CredentialFunc makes ErrAuthRequired fatal.
type CredentialFunc func(registry string) (username, password string, err error)

// Resolver produces a guaranteed-present local image reference for each
// required image, in priority order: pre-built local image, registry pull,
// and for the code-server image only, a public default.
type Resolver struct {
	runtime     runtime.Runtime
	registry    string
	namespace   string
	credentials CredentialFunc
	progress    io.Writer
}

// NewResolver creates a resolver pulling from the given registry/namespace.
func NewResolver(rt runtime.Runtime, registry, namespace string, credentials CredentialFunc, progress io.Writer) *Resolver {
	return &Resolver{
		runtime:     rt,
		registry:    registry,
		namespace:   namespace,
		credentials: credentials,
		progress:    progress,
	}
}

// Resolve returns an image reference usable by the lifecycle controller for
// the given repository, acquiring it if necessary.
func (r *Resolver) Resolve(ctx context.Context, repository string) (string, error) {
	ref := Reference{
		Registry:   r.registry,
		Namespace:  r.namespace,
		Repository: repository,
	}
	local := ref.LocalName()

	// A locally pre-built custom image wins over any registry copy.
	exists, err := r.runtime.ImageExists(ctx, local)
	if err != nil {
		return "", fmt.Errorf("failed to check local images: %w", err)
	}
	if exists {
		log.Info().Str("image", local).Msg("Image found locally, skipping pull")
		return local, nil
	}

	if err := r.pullAndRetag(ctx, ref); err == nil {
		return local, nil
	} else if repository != config.ImageCodeServer {
		return "", err
	} else {
		log.Warn().Err(err).Str("repository", repository).Msg("Custom code-server image unavailable")
	}

	// Code-server falls back to the public default image. It lacks the
	// Docker CLI tooling of the custom image, so sandbox management from
	// inside the editor is degraded.
	log.Warn().Str("fallback", config.PublicCodeServerImage).Msg("Falling back to public code-server image, Docker CLI tooling will be absent")

	fallbackExists, err := r.runtime.ImageExists(ctx, config.PublicCodeServerImage)
	if err != nil {
		return "", fmt.Errorf("failed to check local images: %w", err)
	}
	if !fallbackExists {
		if err := r.runtime.PullImage(ctx, config.PublicCodeServerImage, r.progress); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrImageUnavailable, repository, err)
		}
	}

	return config.PublicCodeServerImage, nil
}

// ResolveAll resolves every repository in order, failing fast. The returned
// map is keyed by repository and holds the image reference to run.
func (r *Resolver) ResolveAll(ctx context.Context, repositories []string) (map[string]string, error) {
	resolved := make(map[string]string, len(repositories))
	for _, repo := range repositories {
		imageRef, err := r.Resolve(ctx, repo)
		if err != nil {
			return nil, err
		}
		resolved[repo] = imageRef
	}
	return resolved, nil
}

// Pull fetches the latest registry copy of the repository regardless of any
// local image, re-tags it under the bare local name and returns that name.
// Used by update, which must refresh rather than reuse.
func (r *Resolver) Pull(ctx context.Context, repository string) (string, error) {
	ref := Reference{
		Registry:   r.registry,
		Namespace:  r.namespace,
		Repository: repository,
	}

	if err := r.pullAndRetag(ctx, ref); err != nil {
		return "", err
	}

	return ref.LocalName(), nil
}

// pullAndRetag pulls the fully qualified reference and re-tags it under the
// bare local name when they differ.
func (r *Resolver) pullAndRetag(ctx context.Context, ref Reference) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	qualified := ref.String()
	err := r.runtime.PullImage(ctx, qualified, r.progress)
	if err != nil && isAuthError(err) {
		if r.credentials == nil {
			return fmt.Errorf("%w: %s", ErrAuthRequired, qualified)
		}

		username, password, promptErr := r.credentials(ref.registry())
		if promptErr != nil {
			return fmt.Errorf("%w: %s", ErrAuthRequired, qualified)
		}
		err = r.runtime.PullImageWithAuth(ctx, qualified, username, password, r.progress)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrImageUnavailable, qualified, err)
	}

	if qualified != ref.LocalName() {
		if err := r.runtime.TagImage(ctx, qualified, ref.LocalName()); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrImageUnavailable, qualified, err)
		}
	}

	return nil
}

// isAuthError reports whether a pull failure is an authentication rejection
// rather than a missing image or network problem.
func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "authentication required") ||
		strings.Contains(msg, "denied")
}

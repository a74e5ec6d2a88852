// Package registry abstracts over the registry naming schemes the image
// manager talks to. Docker Hub exposes a public tag-listing endpoint;
// other registries only get a pointer to their web UI.
package registry

import (
	"context"
	"errors"

	"github.com/cotandem/kai/internal/image"
)

// ErrTagListingUnsupported indicates the registry has no public tag API
// wired here. Callers surface the web UI URL instead; this is an explicit
// limitation, not a failure to reach the registry.
var ErrTagListingUnsupported = errors.New("tag listing not supported for this registry")

// Client lists published tags for one registry kind.
type Client interface {
	// ListTags returns the repository's published tags, most relevant
	// first. Returns ErrTagListingUnsupported when the registry has no
	// public tag API.
	ListTags(ctx context.Context, ref image.Reference) ([]string, error)

	// WebURL points a human at the registry's UI for the repository.
	WebURL(ref image.Reference) string
}

// NewClient selects the client variant for the registry.
func NewClient(registryName string) Client {
	if registryName == "" || registryName == image.DefaultRegistry {
		return NewDockerHubClient()
	}
	return &GenericClient{Registry: registryName}
}

package registry

import (
	"context"
	"fmt"

	"github.com/cotandem/kai/internal/image"
)

// GenericClient covers registries without a public tag API wired here
// (GHCR and friends). Listing is an explicit "not supported" signal plus a
// web UI pointer, not a silent empty result.
type GenericClient struct {
	Registry string
}

// ListTags always reports ErrTagListingUnsupported.
func (c *GenericClient) ListTags(ctx context.Context, ref image.Reference) ([]string, error) {
	return nil, fmt.Errorf("%w: %s, see %s", ErrTagListingUnsupported, c.Registry, c.WebURL(ref))
}

// WebURL points at the registry's UI for the repository. GHCR packages
// live under the owner's GitHub page rather than under ghcr.io itself.
func (c *GenericClient) WebURL(ref image.Reference) string {
	if c.Registry == "ghcr.io" && ref.Namespace != "" {
		return fmt.Sprintf("https://github.com/users/%s/packages/container/%s", ref.Namespace, ref.Repository)
	}
	return fmt.Sprintf("https://%s/%s/%s", c.Registry, ref.Namespace, ref.Repository)
}

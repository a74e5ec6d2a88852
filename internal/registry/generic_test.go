package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotandem/kai/internal/image"
)

func TestGenericListTagsIsUnsupported(t *testing.T) {
	client := &GenericClient{Registry: "ghcr.io"}

	ref := image.Reference{Registry: "ghcr.io", Namespace: "alice", Repository: "cotandem-backend"}
	_, err := client.ListTags(context.Background(), ref)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTagListingUnsupported)
	assert.Contains(t, err.Error(), client.WebURL(ref))
}

func TestGenericWebURL(t *testing.T) {
	ghcr := &GenericClient{Registry: "ghcr.io"}
	ref := image.Reference{Registry: "ghcr.io", Namespace: "alice", Repository: "cotandem-backend"}
	assert.Equal(t, "https://github.com/users/alice/packages/container/cotandem-backend", ghcr.WebURL(ref))

	quay := &GenericClient{Registry: "quay.io"}
	ref.Registry = "quay.io"
	assert.Equal(t, "https://quay.io/alice/cotandem-backend", quay.WebURL(ref))
}

func TestNewClientSelectsVariant(t *testing.T) {
	assert.IsType(t, &DockerHubClient{}, NewClient(""))
	assert.IsType(t, &DockerHubClient{}, NewClient("docker.io"))
	assert.IsType(t, &GenericClient{}, NewClient("ghcr.io"))
}

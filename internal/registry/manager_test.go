package registry_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cotandem/kai/internal/image"
	"github.com/cotandem/kai/internal/registry"
	"github.com/cotandem/kai/internal/testutils"
	"github.com/cotandem/kai/internal/testutils/mocks"
	"github.com/cotandem/kai/pkg/runtime"
)

func newManager(rt runtime.Runtime) *registry.Manager {
	return registry.NewManager(rt, registry.NewClient("ghcr.io"), io.Discard)
}

func TestManagerBuild(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("BuildImage", mock.Anything, mock.MatchedBy(func(opts *runtime.BuildOptions) bool {
		return opts.ContextDir == "/tmp/kai/docker/backend" &&
			opts.Tag == "cotandem-backend:latest" &&
			opts.Labels[registry.RepositoryLabel] == "cotandem-backend" &&
			opts.NoCache
	})).Return(nil)

	ref := image.Reference{Repository: "cotandem-backend", Tag: "latest"}
	err := newManager(rt).Build(ctx, "/tmp/kai/docker/backend", ref, true)

	require.NoError(t, err)
	rt.AssertExpectations(t)
}

func TestManagerPushTagsAndPushes(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("TagImage", mock.Anything, "cotandem-backend:latest", "ghcr.io/alice/cotandem-backend:latest").Return(nil)
	rt.On("PushImage", mock.Anything, "ghcr.io/alice/cotandem-backend:latest", "alice", "s3cret", mock.Anything).Return(nil)

	ref := image.Reference{Registry: "ghcr.io", Namespace: "alice", Repository: "cotandem-backend"}
	err := newManager(rt).Push(ctx, ref, "alice", "s3cret")

	require.NoError(t, err)
	rt.AssertExpectations(t)
}

func TestManagerPushRequiresNamespace(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	ref := image.Reference{Registry: "ghcr.io", Repository: "cotandem-backend"}
	err := newManager(rt).Push(ctx, ref, "", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, image.ErrNamespaceRequired)
	rt.AssertNotCalled(t, "PushImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestManagerPullRetagsToLocalName(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("PullImage", mock.Anything, "ghcr.io/alice/cotandem-backend:latest", mock.Anything).Return(nil)
	rt.On("TagImage", mock.Anything, "ghcr.io/alice/cotandem-backend:latest", "cotandem-backend:latest").Return(nil)

	ref := image.Reference{Registry: "ghcr.io", Namespace: "alice", Repository: "cotandem-backend"}
	err := newManager(rt).Pull(ctx, ref)

	require.NoError(t, err)
	rt.AssertExpectations(t)
}

func TestManagerTag(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("TagImage", mock.Anything, "cotandem-backend:latest", "cotandem-backend:v1.2.0").Return(nil)

	ref := image.Reference{Repository: "cotandem-backend", Tag: "latest"}
	err := newManager(rt).Tag(ctx, ref, "v1.2.0")

	require.NoError(t, err)
	rt.AssertExpectations(t)
}

func TestManagerCleanScopesToRepository(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	dangling := []*runtime.ImageSummary{
		// Built locally: attributed by the repository label.
		{ID: "sha256:aaa", Labels: map[string]string{registry.RepositoryLabel: "cotandem-backend"}, Dangling: true},
		// Superseded pull: attributed by the leftover repo digest.
		{ID: "sha256:bbb", RepoDigests: []string{"ghcr.io/alice/cotandem-backend@sha256:feed"}, Dangling: true},
		// Another repository's leftovers stay.
		{ID: "sha256:ccc", Labels: map[string]string{registry.RepositoryLabel: "cotandem-frontend"}, Dangling: true},
		// Unattributable images stay too.
		{ID: "sha256:ddd", Dangling: true},
	}
	rt.On("ListDanglingImages", mock.Anything).Return(dangling, nil)
	rt.On("RemoveImage", mock.Anything, "sha256:aaa", false).Return(nil)
	rt.On("RemoveImage", mock.Anything, "sha256:bbb", false).Return(nil)

	removed, err := newManager(rt).Clean(ctx, "cotandem-backend")

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	rt.AssertNotCalled(t, "RemoveImage", mock.Anything, "sha256:ccc", false)
	rt.AssertNotCalled(t, "RemoveImage", mock.Anything, "sha256:ddd", false)
	rt.AssertExpectations(t)
}

func TestManagerCleanToleratesFailedRemoval(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	dangling := []*runtime.ImageSummary{
		{ID: "sha256:aaa", Labels: map[string]string{registry.RepositoryLabel: "cotandem-backend"}, Dangling: true},
		{ID: "sha256:bbb", Labels: map[string]string{registry.RepositoryLabel: "cotandem-backend"}, Dangling: true},
	}
	rt.On("ListDanglingImages", mock.Anything).Return(dangling, nil)
	rt.On("RemoveImage", mock.Anything, "sha256:aaa", false).Return(errors.New("image in use"))
	rt.On("RemoveImage", mock.Anything, "sha256:bbb", false).Return(nil)

	removed, err := newManager(rt).Clean(ctx, "cotandem-backend")

	// A failed removal is skipped, not fatal.
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	rt.AssertExpectations(t)
}

func TestManagerCleanSupersededKeepsLatest(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("ListImages", mock.Anything).Return([]string{
		"cotandem-backend:latest",
		"cotandem-backend:v1.1.0",
		"cotandem-backend:v1.0.0",
		"cotandem-frontend:v0.9.0",
	}, nil)
	rt.On("RemoveImage", mock.Anything, "cotandem-backend:v1.1.0", false).Return(nil)
	rt.On("RemoveImage", mock.Anything, "cotandem-backend:v1.0.0", false).Return(nil)

	removed, err := newManager(rt).CleanSuperseded(ctx, "cotandem-backend")

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	rt.AssertNotCalled(t, "RemoveImage", mock.Anything, "cotandem-backend:latest", false)
	rt.AssertNotCalled(t, "RemoveImage", mock.Anything, "cotandem-frontend:v0.9.0", false)
	rt.AssertExpectations(t)
}

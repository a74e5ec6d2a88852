package provision_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cotandem/kai/internal/provision"
	"github.com/cotandem/kai/internal/testutils"
	"github.com/cotandem/kai/internal/testutils/mocks"
)

func TestEnsureNetworkCreatesWhenAbsent(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("NetworkExists", mock.Anything, "kai-network").Return(false, nil)
	rt.On("CreateNetwork", mock.Anything, "kai-network", map[string]string{"kai.managed": "true"}).Return(nil)

	require.NoError(t, provision.EnsureNetwork(ctx, rt, "kai-network"))
	rt.AssertExpectations(t)
}

func TestEnsureNetworkSkipsWhenPresent(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("NetworkExists", mock.Anything, "kai-network").Return(true, nil)

	require.NoError(t, provision.EnsureNetwork(ctx, rt, "kai-network"))
	rt.AssertNotCalled(t, "CreateNetwork", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureDirectoriesIsIdempotent(t *testing.T) {
	base := t.TempDir()
	dirs := []string{
		filepath.Join(base, "kai"),
		filepath.Join(base, "kai", ".kai", "code-server", "config"),
	}

	require.NoError(t, provision.EnsureDirectories(dirs))
	require.NoError(t, provision.EnsureDirectories(dirs))

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

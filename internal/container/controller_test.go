package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/internal/container"
	"github.com/cotandem/kai/internal/testutils"
	"github.com/cotandem/kai/internal/testutils/mocks"
	"github.com/cotandem/kai/pkg/runtime"
)

func backendService() config.Service {
	return config.Service{
		Name:  config.ContainerBackend,
		Image: "cotandem-backend:latest",
		Ports: []runtime.PortBinding{{HostPort: 9900, ContainerPort: 9900}},
	}
}

func TestStartServiceCreatesFreshContainer(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{}, nil)
	rt.On("CreateContainer", mock.Anything, mock.MatchedBy(func(cfg *runtime.ContainerConfig) bool {
		return cfg.Name == config.ContainerBackend &&
			cfg.Image == "cotandem-backend:latest" &&
			cfg.Network == "kai-network" &&
			cfg.Restart == "unless-stopped" &&
			cfg.Labels["kai.managed"] == "true"
	})).Return(&runtime.Container{ID: "abc123"}, nil)
	rt.On("StartContainer", mock.Anything, "abc123").Return(nil)
	rt.On("InspectContainer", mock.Anything, "abc123").
		Return(&runtime.Container{ID: "abc123", Name: config.ContainerBackend, State: "running"}, nil)

	controller := container.NewController(rt, "kai-network")
	started, err := controller.StartService(ctx, backendService())

	require.NoError(t, err)
	assert.Equal(t, "running", started.State)
	rt.AssertExpectations(t)
}

func TestStartServiceReplacesExistingContainer(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	existing := &runtime.Container{ID: "old1", Name: config.ContainerBackend, State: "running"}
	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{existing}, nil)
	rt.On("StopContainer", mock.Anything, "old1").Return(nil)
	rt.On("RemoveContainer", mock.Anything, "old1", true).Return(nil)
	rt.On("CreateContainer", mock.Anything, mock.Anything).Return(&runtime.Container{ID: "new1"}, nil)
	rt.On("StartContainer", mock.Anything, "new1").Return(nil)
	rt.On("InspectContainer", mock.Anything, "new1").
		Return(&runtime.Container{ID: "new1", Name: config.ContainerBackend, State: "running"}, nil)

	controller := container.NewController(rt, "kai-network")
	started, err := controller.StartService(ctx, backendService())

	require.NoError(t, err)
	assert.Equal(t, "new1", started.ID)
	rt.AssertExpectations(t)
}

func TestStartServiceReplacesStoppedContainer(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	// A container left behind in exited state is removed without a stop call.
	existing := &runtime.Container{ID: "old1", Name: config.ContainerBackend, State: "exited"}
	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{existing}, nil)
	rt.On("RemoveContainer", mock.Anything, "old1", true).Return(nil)
	rt.On("CreateContainer", mock.Anything, mock.Anything).Return(&runtime.Container{ID: "new1"}, nil)
	rt.On("StartContainer", mock.Anything, "new1").Return(nil)
	rt.On("InspectContainer", mock.Anything, "new1").
		Return(&runtime.Container{ID: "new1", State: "running"}, nil)

	controller := container.NewController(rt, "kai-network")
	_, err := controller.StartService(ctx, backendService())

	require.NoError(t, err)
	rt.AssertNotCalled(t, "StopContainer", mock.Anything, "old1")
	rt.AssertExpectations(t)
}

func TestStartServiceCleansUpOnFailedStart(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{}, nil)
	rt.On("CreateContainer", mock.Anything, mock.Anything).Return(&runtime.Container{ID: "abc123"}, nil)
	rt.On("StartContainer", mock.Anything, "abc123").Return(errors.New("port already allocated"))
	rt.On("RemoveContainer", mock.Anything, "abc123", true).Return(nil)

	controller := container.NewController(rt, "kai-network")
	_, err := controller.StartService(ctx, backendService())

	require.Error(t, err)
	rt.AssertExpectations(t)
}

func TestStartServicesFailsFast(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{}, nil)
	rt.On("CreateContainer", mock.Anything, mock.Anything).Return(nil, errors.New("no such image"))

	controller := container.NewController(rt, "kai-network")
	err := controller.StartServices(ctx, []config.Service{
		backendService(),
		{Name: config.ContainerFrontend, Image: "cotandem-frontend:latest"},
	})

	require.Error(t, err)
	// Only one create attempt: the frontend is never reached.
	rt.AssertNumberOfCalls(t, "CreateContainer", 1)
}

func TestStopServiceIsIdempotent(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{}, nil)

	controller := container.NewController(rt, "kai-network")
	acted, err := controller.StopService(ctx, config.ContainerBackend)

	require.NoError(t, err)
	assert.False(t, acted)
	rt.AssertNotCalled(t, "StopContainer", mock.Anything, mock.Anything)
	rt.AssertNotCalled(t, "RemoveContainer", mock.Anything, mock.Anything, mock.Anything)
}

func TestStopServicesReportsActionsTaken(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	running := &runtime.Container{ID: "b1", Name: config.ContainerBackend, State: "running"}
	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{running}, nil)
	rt.On("StopContainer", mock.Anything, "b1").Return(nil)
	rt.On("RemoveContainer", mock.Anything, "b1", true).Return(nil)

	controller := container.NewController(rt, "kai-network")
	stopped, err := controller.StopServices(ctx, []string{
		config.ContainerFrontend,
		config.ContainerCodeServer,
		config.ContainerBackend,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, stopped)
}

func TestStopServicesIsolatesFailures(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	frontend := &runtime.Container{ID: "f1", Name: config.ContainerFrontend, State: "running"}
	backend := &runtime.Container{ID: "b1", Name: config.ContainerBackend, State: "running"}
	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{frontend, backend}, nil)
	rt.On("StopContainer", mock.Anything, "f1").Return(errors.New("cannot stop"))
	rt.On("StopContainer", mock.Anything, "b1").Return(nil)
	rt.On("RemoveContainer", mock.Anything, "b1", true).Return(nil)

	controller := container.NewController(rt, "kai-network")
	stopped, err := controller.StopServices(ctx, []string{
		config.ContainerFrontend,
		config.ContainerBackend,
	})

	// The frontend failure does not prevent the backend from stopping.
	require.Error(t, err)
	assert.Equal(t, 1, stopped)
	rt.AssertExpectations(t)
}

func TestStatusReportsAbsentServices(t *testing.T) {
	ctx := testutils.TestContext(t)
	rt := new(mocks.MockRuntime)

	running := &runtime.Container{ID: "b1", Name: config.ContainerBackend, State: "running"}
	rt.On("ListContainers", mock.Anything, true).Return([]*runtime.Container{running}, nil)

	controller := container.NewController(rt, "kai-network")
	states, err := controller.Status(ctx, []string{config.ContainerBackend, config.ContainerFrontend})

	require.NoError(t, err)
	assert.NotNil(t, states[config.ContainerBackend])
	assert.Nil(t, states[config.ContainerFrontend])
}

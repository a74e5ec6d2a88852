package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/cotandem/kai/pkg/runtime"
)

// MockRuntime is a mock implementation of runtime.Runtime
type MockRuntime struct {
	mock.Mock
}

var _ runtime.Runtime = (*MockRuntime)(nil)

// Container lifecycle

func (m *MockRuntime) CreateContainer(ctx context.Context, config *runtime.ContainerConfig) (*runtime.Container, error) {
	args := m.Called(ctx, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*runtime.Container), args.Error(1)
}

func (m *MockRuntime) StartContainer(ctx context.Context, containerID string) error {
	args := m.Called(ctx, containerID)
	return args.Error(0)
}

func (m *MockRuntime) StopContainer(ctx context.Context, containerID string) error {
	args := m.Called(ctx, containerID)
	return args.Error(0)
}

func (m *MockRuntime) RemoveContainer(ctx context.Context, containerID string, force bool) error {
	args := m.Called(ctx, containerID, force)
	return args.Error(0)
}

// Container inspection

func (m *MockRuntime) ListContainers(ctx context.Context, all bool) ([]*runtime.Container, error) {
	args := m.Called(ctx, all)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*runtime.Container), args.Error(1)
}

func (m *MockRuntime) InspectContainer(ctx context.Context, containerID string) (*runtime.Container, error) {
	args := m.Called(ctx, containerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*runtime.Container), args.Error(1)
}

func (m *MockRuntime) IsContainerRunning(ctx context.Context, containerID string) (bool, error) {
	args := m.Called(ctx, containerID)
	return args.Bool(0), args.Error(1)
}

// Image operations

func (m *MockRuntime) PullImage(ctx context.Context, imageRef string, progress io.Writer) error {
	args := m.Called(ctx, imageRef, progress)
	return args.Error(0)
}

func (m *MockRuntime) PullImageWithAuth(ctx context.Context, imageRef, username, password string, progress io.Writer) error {
	args := m.Called(ctx, imageRef, username, password, progress)
	return args.Error(0)
}

func (m *MockRuntime) PushImage(ctx context.Context, imageRef, username, password string, progress io.Writer) error {
	args := m.Called(ctx, imageRef, username, password, progress)
	return args.Error(0)
}

func (m *MockRuntime) BuildImage(ctx context.Context, opts *runtime.BuildOptions) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}

func (m *MockRuntime) TagImage(ctx context.Context, sourceRef, targetRef string) error {
	args := m.Called(ctx, sourceRef, targetRef)
	return args.Error(0)
}

func (m *MockRuntime) RemoveImage(ctx context.Context, imageRef string, force bool) error {
	args := m.Called(ctx, imageRef, force)
	return args.Error(0)
}

func (m *MockRuntime) ListImages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRuntime) ListDanglingImages(ctx context.Context) ([]*runtime.ImageSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*runtime.ImageSummary), args.Error(1)
}

func (m *MockRuntime) ImageExists(ctx context.Context, imageRef string) (bool, error) {
	args := m.Called(ctx, imageRef)
	return args.Bool(0), args.Error(1)
}

// Network management

func (m *MockRuntime) NetworkExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockRuntime) CreateNetwork(ctx context.Context, name string, labels map[string]string) error {
	args := m.Called(ctx, name, labels)
	return args.Error(0)
}

// Runtime information

func (m *MockRuntime) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRuntime) Version(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

package runtime

import (
	"context"
	"io"
)

// Container represents a container known to the runtime
type Container struct {
	ID     string
	Image  string
	Name   string
	State  string // e.g. "running", "exited"
	Status string // human readable, e.g. "Up 5 minutes"
	Labels map[string]string
}

// NetworkInfo represents a network
type NetworkInfo struct {
	ID     string
	Name   string
	Driver string
	Labels map[string]string
}

// ImageSummary represents a local image
type ImageSummary struct {
	ID          string
	RepoTags    []string
	RepoDigests []string
	Labels      map[string]string
	Dangling    bool
}

// PortBinding maps a fixed host port to a container port
type PortBinding struct {
	HostPort      int
	ContainerPort int
}

// VolumeMount binds a host path into the container
type VolumeMount struct {
	HostPath      string
	ContainerPath string
}

// ContainerConfig holds configuration for creating a container
type ContainerConfig struct {
	Image      string
	Name       string
	Env        []string
	Ports      []PortBinding
	Volumes    []VolumeMount
	Labels     map[string]string
	Network    string
	Privileged bool
	Restart    string // restart policy name, empty means no restart
}

// BuildOptions holds configuration for building an image
type BuildOptions struct {
	ContextDir string
	Dockerfile string
	Tag        string
	Labels     map[string]string
	NoCache    bool
	Output     io.Writer // build progress destination, nil discards
}

// Runtime interface defines the contract for container runtime implementations
type Runtime interface {
	// Container lifecycle
	CreateContainer(ctx context.Context, config *ContainerConfig) (*Container, error)
	StartContainer(ctx context.Context, containerID string) error
	StopContainer(ctx context.Context, containerID string) error
	RemoveContainer(ctx context.Context, containerID string, force bool) error

	// Container inspection
	ListContainers(ctx context.Context, all bool) ([]*Container, error)
	InspectContainer(ctx context.Context, containerID string) (*Container, error)
	IsContainerRunning(ctx context.Context, containerID string) (bool, error)

	// Image operations
	PullImage(ctx context.Context, imageRef string, progress io.Writer) error
	PullImageWithAuth(ctx context.Context, imageRef, username, password string, progress io.Writer) error
	PushImage(ctx context.Context, imageRef, username, password string, progress io.Writer) error
	BuildImage(ctx context.Context, opts *BuildOptions) error
	TagImage(ctx context.Context, sourceRef, targetRef string) error
	RemoveImage(ctx context.Context, imageRef string, force bool) error
	ListImages(ctx context.Context) ([]string, error)
	ListDanglingImages(ctx context.Context) ([]*ImageSummary, error)
	ImageExists(ctx context.Context, imageRef string) (bool, error)

	// Network management
	NetworkExists(ctx context.Context, name string) (bool, error)
	CreateNetwork(ctx context.Context, name string, labels map[string]string) error

	// Runtime information
	Ping(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}
